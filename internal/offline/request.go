package offline

import (
	"net/http"
	"net/url"
	"strings"
)

// Mode distinguishes page navigations from sub-resource fetches. The
// router only consults it on the failure path: failed navigations get the
// offline page, failed sub-resource fetches get a synthetic 503.
type Mode string

const (
	// ModeNavigate marks a top-level page navigation.
	ModeNavigate Mode = "navigate"
	// ModeSubresource marks any other fetch (assets, API calls).
	ModeSubresource Mode = "no-cors"
)

// Request is a transient view of an intercepted fetch: method, URL, and
// mode. It never owns a body; mutations are queued through the outbox,
// not replayed through the cache layer.
type Request struct {
	Method string
	URL    *url.URL
	Mode   Mode
}

// FromHTTP derives an intercepted request from a live *http.Request.
// Navigation detection follows the Sec-Fetch-Mode header when present and
// falls back to the Accept header for hosts that do not send it.
func FromHTTP(r *http.Request) *Request {
	mode := ModeSubresource
	switch {
	case r.Header.Get("Sec-Fetch-Mode") == "navigate":
		mode = ModeNavigate
	case r.Header.Get("Sec-Fetch-Mode") == "":
		if strings.Contains(r.Header.Get("Accept"), "text/html") {
			mode = ModeNavigate
		}
	}
	u := r.URL
	if u.Host == "" && r.Host != "" {
		clone := *u
		clone.Host = r.Host
		u = &clone
	}
	return &Request{
		Method: r.Method,
		URL:    u,
		Mode:   mode,
	}
}

// IsNavigation reports whether the request is a page navigation.
func (r *Request) IsNavigation() bool {
	return r.Mode == ModeNavigate
}

// Key returns the normalized cache key for the request: method plus URL
// with the fragment stripped. Query strings are significant; fragments
// never reach the server and must not split cache entries.
func (r *Request) Key() string {
	u := *r.URL
	u.Fragment = ""
	u.RawFragment = ""
	return r.Method + " " + u.String()
}

// PathKey builds the cache key for a GET of a path relative to origin.
// The lifecycle controller uses it to address precache manifest entries.
func PathKey(origin *url.URL, path string) string {
	req := &Request{Method: http.MethodGet, URL: origin.ResolveReference(mustRef(path))}
	return req.Key()
}

func mustRef(path string) *url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		return &url.URL{Path: path}
	}
	return ref
}
