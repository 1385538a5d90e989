package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	cacheLookupsTotal = nil
	runsTotal = nil
	runDurationSeconds = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if cacheLookupsTotal == nil || runsTotal == nil || runDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveCacheLookups(t *testing.T) {
	Init()

	hitBefore := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit"))
	missBefore := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("miss"))
	ObserveCacheLookups(3, 1)
	require.Equal(t, hitBefore+3, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit")))
	require.Equal(t, missBefore+1, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("miss")))
}

func TestObserveStateEventsSkipsZeroes(t *testing.T) {
	Init()

	addBefore := testutil.ToFloat64(stateEventsTotal.WithLabelValues("add"))
	trimBefore := testutil.ToFloat64(stateEventsTrimmed)
	ObserveStateEvents(2, 0, 0)
	require.Equal(t, addBefore+2, testutil.ToFloat64(stateEventsTotal.WithLabelValues("add")))
	require.Equal(t, trimBefore, testutil.ToFloat64(stateEventsTrimmed))
}

func TestServerRoutes(t *testing.T) {
	Init()

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", Handler())

	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerShutdown(t *testing.T) {
	Init()

	s := NewServer("127.0.0.1:0", zap.NewNop())
	s.Start()
	require.NoError(t, s.Shutdown(t.Context()))
}
