package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvest/internal/adapters/memory"
	"harvest/internal/domain"
	"harvest/internal/services/collectors"
	"harvest/internal/services/sites"
)

// noopEngine terminates the record immediately so handler tests stay
// deterministic without real crawls.
type noopEngine struct{}

func (noopEngine) Run(context.Context, int64) {}

func newTestServer(t *testing.T) (*memory.Store, *httptest.Server) {
	t.Helper()
	store := memory.NewStore()
	dispatcher := collectors.New(context.Background(), store.Collectors(), noopEngine{}, noopEngine{})
	siteSvc := sites.New(store.Domains(), store.Collectors(), dispatcher)

	srv := httptest.NewServer(New(siteSvc, dispatcher, store.Contacts()).Routes())
	t.Cleanup(srv.Close)
	return store, srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAddSite(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sites", `{"domain": "https://Example.com/path"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Domain  string `json:"domain"`
		Created bool   `json:"created"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "example.com", out.Domain)
	assert.True(t, out.Created)

	// Registering the same domain again reports it already exists.
	resp = postJSON(t, srv.URL+"/sites", `{"domain": "example.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAddSiteInvalidDomain(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sites", `{"domain": "not a domain"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAddSiteMalformedBody(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sites", `{broken`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListCollectors(t *testing.T) {
	_, srv := newTestServer(t)

	postJSON(t, srv.URL+"/sites", `{"domain": "example.com"}`)

	resp, err := http.Get(srv.URL + "/collectors")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []struct {
		Domain string `json:"domain"`
		Type   string `json:"type"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	for _, c := range list {
		assert.Equal(t, "example.com", c.Domain)
	}
}

func TestCollectorActions(t *testing.T) {
	store, srv := newTestServer(t)
	ctx := context.Background()

	dom, _, err := store.Domains().GetOrCreate(ctx, "example.com")
	require.NoError(t, err)
	col, err := store.Collectors().Create(ctx, dom.ID, domain.TypeScraper)
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/collectors/1/toggle", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	got, _ := store.Collectors().Get(ctx, col.ID)
	assert.False(t, got.Enabled)

	resp = postJSON(t, srv.URL+"/collectors/1/stop", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	got, _ = store.Collectors().Get(ctx, col.ID)
	assert.Equal(t, domain.StatusStopped, got.Status)
	assert.True(t, got.StopRequested)

	resp = postJSON(t, srv.URL+"/collectors/1/start", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCollectorActionUnknownID(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/collectors/999/stop", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCollectorActionBadID(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/collectors/abc/stop", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListContacts(t *testing.T) {
	store, srv := newTestServer(t)
	ctx := context.Background()

	dom, _, err := store.Domains().GetOrCreate(ctx, "example.com")
	require.NoError(t, err)
	col, err := store.Collectors().Create(ctx, dom.ID, domain.TypeScraper)
	require.NoError(t, err)
	require.NoError(t, store.Contacts().GetOrCreate(ctx, domain.EmailContact(dom.ID, "a@x.com", col.ID)))

	resp, err := http.Get(srv.URL + "/contacts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []struct {
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Email)
	assert.Equal(t, "a@x.com", *list[0].Email)
	assert.Nil(t, list[0].Phone)
}
