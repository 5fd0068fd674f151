package offline

import (
	"net/http"
)

// Transport is an http.RoundTripper adapter bridging the host's request
// delivery to the manager's fetch handler, the way a worker context
// observes a page's fetches. Requests flow to the underlying transport
// untouched until the manager activates; from then on same-origin
// requests route through the cache strategies without the client being
// restarted.
type Transport struct {
	manager *Manager
	next    http.RoundTripper
}

// NewTransport wraps next with interception by manager. A nil next uses
// http.DefaultTransport.
func NewTransport(manager *Manager, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{manager: manager, next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.manager.Active() {
		return t.next.RoundTrip(req)
	}
	intercepted := FromHTTP(req)
	if t.manager.Classify(intercepted) == ClassBypass {
		return t.next.RoundTrip(req)
	}
	snap, err := t.manager.HandleFetch(req.Context(), intercepted)
	if err != nil {
		return nil, err
	}
	return snap.Response(req), nil
}
