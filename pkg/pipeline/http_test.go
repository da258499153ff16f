package pipeline

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/trialscope-ai/trialsync/pkg/registry"
)

func newTestRouter(svc *Service) *mux.Router {
	router := mux.NewRouter()
	NewHTTPHandler(svc, nil, nil).Register(router)
	return router
}

func TestTriggerRefusedWhileRunInProgress(t *testing.T) {
	state := &lockState{held: true}
	fetcher := &scriptedFetcher{}
	svc := newLockedTestService(fetcher, &memoryExporter{}, state, 10)
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sync", nil))

	// The lock is claimed before the handler answers, so a conflicting
	// trigger gets 409 instead of a 202 for a run that never starts.
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if fetcher.calls != 0 {
		t.Fatalf("refused trigger must not fetch, got %d calls", fetcher.calls)
	}
}

func TestTriggerAcceptsAndReportsRunID(t *testing.T) {
	fetcher := &scriptedFetcher{pages: []*registry.Page{page("")}}
	svc := newTestService(fetcher, &memoryExporter{}, 10)
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sync", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["run_id"] == "" || body["status"] != StatusRunning {
		t.Fatalf("unexpected trigger response: %v", body)
	}
}

// Without postgres or redis the history endpoints degrade to 503; the
// trigger keeps working.
func TestHistoryEndpointsDegradeWithoutBackends(t *testing.T) {
	svc := newTestService(&scriptedFetcher{pages: []*registry.Page{page("")}}, &memoryExporter{}, 10)
	router := newTestRouter(svc)

	for _, path := range []string{"/sync/runs/some-id", "/sync/last"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("trigger must still work without backends, got %d", rr.Code)
	}
}
