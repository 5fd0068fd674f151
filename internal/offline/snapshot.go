package offline

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

// Snapshot is an immutable capture of an HTTP response: status, headers,
// and body bytes. Capturing once lets the same response be returned to the
// caller and persisted to a store without either consumer observing the
// other's reads.
type Snapshot struct {
	status int
	header http.Header
	body   []byte
}

// NewSnapshot builds a snapshot from literal parts. The header and body
// are copied so later mutation of the arguments cannot leak in.
func NewSnapshot(status int, header http.Header, body []byte) *Snapshot {
	s := &Snapshot{
		status: status,
		header: make(http.Header, len(header)),
		body:   make([]byte, len(body)),
	}
	for k, v := range header {
		s.header[k] = append([]string(nil), v...)
	}
	copy(s.body, body)
	return s
}

// Capture drains and closes a live response, producing its snapshot.
func Capture(resp *http.Response) (*Snapshot, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(resp.StatusCode, resp.Header, body), nil
}

// Status returns the captured status code.
func (s *Snapshot) Status() int {
	return s.status
}

// OK reports whether the captured status is exactly 200.
func (s *Snapshot) OK() bool {
	return s.status == http.StatusOK
}

// Header returns a copy of the captured headers.
func (s *Snapshot) Header() http.Header {
	h := make(http.Header, len(s.header))
	for k, v := range s.header {
		h[k] = append([]string(nil), v...)
	}
	return h
}

// Body returns a copy of the captured body bytes.
func (s *Snapshot) Body() []byte {
	return append([]byte(nil), s.body...)
}

// Response materializes a fresh *http.Response from the snapshot.
// Each call returns an independent body reader, so a snapshot can be
// served to any number of callers.
func (s *Snapshot) Response(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode:    s.status,
		Status:        strconv.Itoa(s.status) + " " + http.StatusText(s.status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        s.Header(),
		Body:          io.NopCloser(bytes.NewReader(s.body)),
		ContentLength: int64(len(s.body)),
		Request:       req,
	}
}
