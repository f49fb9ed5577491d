package source

import (
	"net/http"
	"time"
)

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds each status-source request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithFormat selects the payload format for the online list, FormatHTML
// (default) or FormatJSON.
func WithFormat(f string) Option {
	return func(c *Client) { c.format = f }
}
