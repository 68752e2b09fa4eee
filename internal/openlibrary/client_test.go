package openlibrary_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BookShelf/internal/catalog"
	"BookShelf/internal/openlibrary"
)

func newOLServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, chan *http.Request) {
	t.Helper()

	var calls atomic.Int32
	reqs := make(chan *http.Request, 8)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		reqs <- r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts, &calls, reqs
}

func newClient(baseURL string, m *openlibrary.Metrics) *openlibrary.Client {
	return openlibrary.NewClient(openlibrary.Config{
		BaseURL:   baseURL,
		UserAgent: "BookShelf-test",
		Timeout:   2 * time.Second,
	}, zap.NewNop(), m)
}

func TestClient_Search_EmptyQueryDoesNotCallOut(t *testing.T) {
	ts, calls, _ := newOLServer(t, http.StatusOK, `{"docs":[]}`)
	c := newClient(ts.URL, nil)

	for _, q := range []string{"", "   "} {
		got, err := c.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_Search_Request(t *testing.T) {
	ts, calls, reqs := newOLServer(t, http.StatusOK, `{"numFound":0,"docs":[]}`)
	c := newClient(ts.URL, nil)

	_, err := c.Search(context.Background(), "  el quijote & co ")
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	r := <-reqs
	assert.Equal(t, http.MethodGet, r.Method)
	assert.Equal(t, "/search.json", r.URL.Path)
	assert.Equal(t, "el quijote & co", r.URL.Query().Get("title"))
	assert.Equal(t, "18", r.URL.Query().Get("limit"))
	assert.Contains(t, r.URL.Query().Get("fields"), "author_name")
	assert.Equal(t, "BookShelf-test", r.Header.Get("User-Agent"))
}

func TestClient_Search_MapsDocs(t *testing.T) {
	body := `{"docs":[
		{"title":"Foo"},
		{"title":"Dune","author_name":["Frank Herbert","Other"],"first_publish_year":1965,
		 "cover_i":12345,"isbn":["9780441013593","0441013597"],"subject":["Arrakis","Spice"],
		 "edition_count":7,"number_of_pages_median":412},
		{"title":"Nulls","author_name":null,"isbn":null,"cover_i":null,"first_publish_year":null}
	]}`
	ts, _, _ := newOLServer(t, http.StatusOK, body)
	c := newClient(ts.URL, nil)

	got, err := c.Search(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, catalog.Fields{Title: "Foo", Author: "unknown"}, got[0])

	assert.Equal(t, catalog.Fields{
		Title:        "Dune",
		Author:       "Frank Herbert",
		Year:         "1965",
		CoverID:      "12345",
		ISBN:         "9780441013593",
		Subject:      "Arrakis",
		EditionCount: 7,
		PageCount:    412,
	}, got[1])

	assert.Equal(t, catalog.Fields{Title: "Nulls", Author: "unknown"}, got[2])
}

func TestClient_Search_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"rate limited", http.StatusTooManyRequests, `{}`},
		{"malformed body", http.StatusOK, `{"docs":[`},
		{"wrong shape", http.StatusOK, `{"docs":{"title":"x"}}`},
		{"empty object", http.StatusOK, `{}`},
		{"null body", http.StatusOK, `null`},
		{"null docs", http.StatusOK, `{"numFound":0,"docs":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls, _ := newOLServer(t, tt.status, tt.body)
			c := newClient(ts.URL, nil)

			got, err := c.Search(context.Background(), "dune")
			require.ErrorIs(t, err, catalog.ErrSearchFailed)
			assert.Nil(t, got)
			assert.Equal(t, int32(1), calls.Load(), "no retry")
		})
	}
}

func TestClient_Search_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	reg := prometheus.NewRegistry()
	m := openlibrary.NewMetrics(reg)
	c := newClient(url, m)

	store := catalog.NewStore(catalog.NewMemSlot())
	require.NoError(t, store.Load(context.Background()))
	before := store.List()

	_, err := c.Search(context.Background(), "dune")
	require.ErrorIs(t, err, catalog.ErrSearchFailed)
	assert.Equal(t, before, store.List())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("failed")))
}

func TestClient_LimitIsClamped(t *testing.T) {
	ts, _, reqs := newOLServer(t, http.StatusOK, `{"docs":[]}`)
	c := openlibrary.NewClient(openlibrary.Config{BaseURL: ts.URL, Limit: 5000}, nil, nil)

	_, err := c.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "100", (<-reqs).URL.Query().Get("limit"))
}
