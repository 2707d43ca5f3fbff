package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatrelay/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRouter(t *testing.T, webhook http.Handler) (http.Handler, *observability.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	router := NewRouter(RouterDeps{
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:         metrics,
		MetricsHandler:  observability.Handler(reg),
		TelegramHandler: webhook,
	})
	return router, metrics
}

func TestRouterPing(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "pong" {
		t.Fatalf("unexpected ping response %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestRouterWebhookAcceptsAnyMethod(t *testing.T) {
	var methods []string
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	router, metrics := newTestRouter(t, webhook)

	for _, m := range []string{http.MethodPost, http.MethodGet} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(m, "/telegram/webhook", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", m, rr.Code)
		}
	}
	if len(methods) != 2 {
		t.Fatalf("expected both methods routed, got %v", methods)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "200")); got != 1 {
		t.Fatalf("expected one counted POST, got %v", got)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, metrics := newTestRouter(t, http.NotFoundHandler())
	metrics.Command("start")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `test_commands_total{command="start"} 1`) {
		t.Fatalf("expected command counter in output:\n%s", rr.Body.String())
	}
}

func TestRouterRecoversPanic(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, http.StatusBadRequest, "bad_request", "cannot parse update")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	want := `{"error":{"code":"bad_request","message":"cannot parse update"}}`
	if strings.TrimSpace(rr.Body.String()) != want {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
