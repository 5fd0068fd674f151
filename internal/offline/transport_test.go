package offline

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockedManager builds a manager whose fetcher goes through an
// httpmock-instrumented client, plus a client whose transport routes
// through the manager.
func newMockedManager(t *testing.T) (*Manager, *http.Client, *httpmock.MockTransport) {
	t.Helper()

	mock := httpmock.NewMockTransport()
	netClient := &http.Client{Transport: mock}

	m, err := NewManager(testConfig(), NewHTTPFetcher(netClient), testLog())
	require.NoError(t, err)

	appClient := &http.Client{Transport: NewTransport(m, mock)}
	return m, appClient, mock
}

func registerShell(mock *httpmock.MockTransport) {
	for _, path := range testConfig().Manifest {
		mock.RegisterResponder(http.MethodGet, testOrigin+path,
			httpmock.NewStringResponder(http.StatusOK, "shell:"+path))
	}
}

func TestTransportPassesThroughWhenInactive(t *testing.T) {
	t.Parallel()

	_, client, mock := newMockedManager(t)
	mock.RegisterResponder(http.MethodGet, testOrigin+"/api/pets",
		httpmock.NewStringResponder(http.StatusOK, "live"))

	resp, err := client.Get(testOrigin + "/api/pets")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "live", string(body))
}

func TestTransportServesApiFromCacheWhenNetworkDies(t *testing.T) {
	t.Parallel()

	m, client, mock := newMockedManager(t)
	registerShell(mock)
	mock.RegisterResponder(http.MethodGet, testOrigin+"/api/pets",
		httpmock.NewStringResponder(http.StatusOK, `[{"name":"Max","species":"dog"}]`))

	require.NoError(t, m.Install(t.Context()))
	require.NoError(t, m.Activate(t.Context()))

	// First request primes the runtime store through the live path.
	resp, err := client.Get(testOrigin + "/api/pets")
	require.NoError(t, err)
	first, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	store, ok := m.Stores().Get("pawkeep-runtime-v1")
	require.True(t, ok)
	require.Eventually(t, func() bool { return store.Len() > 0 }, time.Second, 5*time.Millisecond)

	// Network goes away; the cached body still answers.
	mock.RegisterResponder(http.MethodGet, testOrigin+"/api/pets",
		httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	resp, err = client.Get(testOrigin + "/api/pets")
	require.NoError(t, err)
	second, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, string(first), string(second))
}

func TestTransportServesOfflinePageForFailedNavigation(t *testing.T) {
	t.Parallel()

	m, client, mock := newMockedManager(t)
	registerShell(mock)

	require.NoError(t, m.Install(t.Context()))
	require.NoError(t, m.Activate(t.Context()))

	mock.RegisterResponder(http.MethodGet, testOrigin+"/api/pets",
		httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	req, err := http.NewRequest(http.MethodGet, testOrigin+"/api/pets", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "shell:/offline", string(body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransportBypassesCrossOrigin(t *testing.T) {
	t.Parallel()

	m, client, mock := newMockedManager(t)
	registerShell(mock)
	mock.RegisterResponder(http.MethodGet, "https://cdn.example.com/lib.js",
		httpmock.NewStringResponder(http.StatusOK, "cdn"))

	require.NoError(t, m.Install(t.Context()))
	require.NoError(t, m.Activate(t.Context()))

	resp, err := client.Get("https://cdn.example.com/lib.js")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "cdn", string(body))
}

func TestHTTPFetcherCapturesStatusAndBody(t *testing.T) {
	t.Parallel()

	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodGet, testOrigin+"/offline",
		httpmock.NewStringResponder(http.StatusOK, "<html>offline</html>"))

	f := NewHTTPFetcher(&http.Client{Transport: mock})
	snap, err := f.Fetch(t.Context(), apiRequest(t, http.MethodGet, "/offline"))
	require.NoError(t, err)
	assert.True(t, snap.OK())
	assert.Equal(t, "<html>offline</html>", string(snap.Body()))
}
