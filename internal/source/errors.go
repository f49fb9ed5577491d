package source

import "fmt"

// FetchError reports a failed status-source request: transport failure,
// unexpected HTTP status, or a malformed payload. Any run that hits one
// aborts without writing.
type FetchError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
