package offline

import (
	"context"
	"net/http"
)

// Fetcher performs the actual network fetch for an intercepted request and
// returns an immutable snapshot of the result. A returned error means the
// network layer failed (connection refused, timeout); HTTP error statuses
// are not Fetcher errors, they arrive as snapshots.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Snapshot, error)
}

// HTTPFetcher fetches over a standard HTTP client.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher using client, or http.DefaultClient
// when client is nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client}
}

// Fetch issues the request and captures the response. Request bodies are
// never carried; the cache layer only replays safe reads.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *Request) (*Snapshot, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	return Capture(resp)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, req *Request) (*Snapshot, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, req *Request) (*Snapshot, error) {
	return f(ctx, req)
}
