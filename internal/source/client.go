// Client for the game server's public status pages. HTML mode scrapes the
// "who is online" and guild member pages the way the site renders them;
// JSON mode expects the base URL to serve the online-player list directly.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"guildwatch/internal/logging"
)

const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// Client fetches presence data from one game server.
type Client struct {
	baseURL   string
	guild     string
	format    string
	userAgent string
	http      *http.Client
}

// New creates a status-source client for baseURL. The guild name is only
// needed for member/profile lookups in HTML mode.
func New(baseURL, guild string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimSpace(baseURL),
		guild:     guild,
		format:    FormatHTML,
		userAgent: "Mozilla/5.0 (compatible; guildwatch/1.0)",
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) onlineURL() string {
	if c.format == FormatJSON {
		return c.baseURL
	}
	return c.baseURL + "?subtopic=whoisonline"
}

func (c *Client) guildURL() string {
	return c.baseURL + "?subtopic=guilds&page=view&GuildName=" + url.QueryEscape(c.guild)
}

func (c *Client) profileURL(name string) string {
	return c.baseURL + "?subtopic=characters&name=" + url.QueryEscape(name)
}

// FetchOnline returns the names currently reported online by the source.
// An empty list is a valid answer; any transport or parse failure is a
// *FetchError.
func (c *Client) FetchOnline(ctx context.Context) ([]string, error) {
	if c.format == FormatJSON {
		return c.fetchOnlineJSON(ctx)
	}
	doc, err := c.getDocument(ctx, c.onlineURL())
	if err != nil {
		return nil, err
	}
	return characterNames(doc), nil
}

func (c *Client) fetchOnlineJSON(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.onlineURL())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &FetchError{URL: c.onlineURL(), Err: err}
	}
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		return names, nil
	}
	var wrapped struct {
		Players []string `json:"players"`
		Online  []string `json:"online"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, &FetchError{URL: c.onlineURL(), Err: fmt.Errorf("malformed online list: %w", err)}
	}
	if wrapped.Players != nil {
		return wrapped.Players, nil
	}
	if wrapped.Online != nil {
		return wrapped.Online, nil
	}
	return nil, &FetchError{URL: c.onlineURL(), Err: fmt.Errorf("online list missing players field")}
}

// FetchMembers scrapes the guild page and maps member name to absolute
// profile URL. When the page yields no profile links the returned map is
// empty and callers fall back to profile URLs built from the name.
func (c *Client) FetchMembers(ctx context.Context) (map[string]string, error) {
	doc, err := c.getDocument(ctx, c.guildURL())
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(c.guildURL())
	if err != nil {
		return nil, &FetchError{URL: c.guildURL(), Err: err}
	}
	members := make(map[string]string)
	doc.Find("a[href*='subtopic=characters']").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		href, ok := a.Attr("href")
		if name == "" || !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		members[name] = base.ResolveReference(ref).String()
	})
	return members, nil
}

var lastLoginRE = regexp.MustCompile(`(?i)last\s*login:?\s*(.*)`)

// Layouts observed on character profile pages.
var lastLoginLayouts = []string{
	"02/01/2006, 15:04:05",
	"Jan 02 2006, 15:04:05 MST",
	time.RFC3339,
}

// FetchLastLogin reads the "Last login" value from a character profile page.
// It returns the raw string and, when one of the known layouts matches, the
// parsed time. A profile without the field yields ("", nil, nil).
func (c *Client) FetchLastLogin(ctx context.Context, profileURL string) (string, *time.Time, error) {
	doc, err := c.getDocument(ctx, profileURL)
	if err != nil {
		return "", nil, err
	}

	var raw string
	doc.Find("td, span, b, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := lastLoginRE.FindStringSubmatch(strings.TrimSpace(s.Text()))
		if m == nil {
			return true
		}
		raw = strings.TrimSpace(m[1])
		if raw == "" {
			// Label and value split across sibling cells.
			raw = strings.TrimSpace(s.Next().Text())
		}
		return false
	})
	if raw == "" {
		return "", nil, nil
	}
	for _, layout := range lastLoginLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return raw, &ts, nil
		}
	}
	return raw, nil, nil
}

// LastLogins resolves the last-login time for every roster name it can.
// Individual profile failures are logged and skipped; only the guild page
// fetch itself can fail the call.
func (c *Client) LastLogins(ctx context.Context, names []string) (map[string]time.Time, error) {
	log := logging.FromContext(ctx)

	members, err := c.FetchMembers(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]time.Time, len(names))
	for _, name := range names {
		profile, ok := members[name]
		if !ok {
			profile = c.profileURL(name)
		}
		raw, ts, err := c.FetchLastLogin(ctx, profile)
		if err != nil {
			log.Warn("profile fetch failed", "player", name, "error", err)
			continue
		}
		if ts == nil {
			if raw != "" {
				log.Debug("unparseable last login", "player", name, "raw", raw)
			}
			continue
		}
		out[name] = *ts
	}
	return out, nil
}

// get performs one HTTP GET and returns the body on a 2xx response.
func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		res.Body.Close()
		return nil, &FetchError{URL: rawURL, Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return res.Body, nil
}

func (c *Client) getDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return doc, nil
}

// characterNames extracts player names from profile links on a status page.
func characterNames(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var names []string
	doc.Find("a[href*='subtopic=characters']").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return names
}
