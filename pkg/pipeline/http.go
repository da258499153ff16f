package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/trialscope-ai/trialsync/pkg/common/logger"
)

type HTTPHandler struct {
	service *Service
	repo    *Repository
	state   *StateStore
}

func NewHTTPHandler(service *Service, repo *Repository, state *StateStore) *HTTPHandler {
	return &HTTPHandler{service: service, repo: repo, state: state}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/sync", h.handleTrigger).Methods(http.MethodPost)
	router.HandleFunc("/sync/runs/{id}", h.handleRun).Methods(http.MethodGet)
	router.HandleFunc("/sync/last", h.handleLast).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	runID := uuid.New().String()
	if err := h.service.Begin(runID); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			http.Error(w, "a sync run is already in progress", http.StatusConflict)
			return
		}
		logger.Log.WithError(err).WithField("run_id", runID).Error("failed to start sync run")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"run_id": runID, "status": StatusRunning})
}

func (h *HTTPHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		http.Error(w, "run history not available", http.StatusServiceUnavailable)
		return
	}

	vars := mux.Vars(r)
	rec, err := h.repo.Get(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch run record")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (h *HTTPHandler) handleLast(w http.ResponseWriter, r *http.Request) {
	if h.state == nil {
		http.Error(w, "run state not available", http.StatusServiceUnavailable)
		return
	}

	summary, err := h.state.LastRun(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoLastRun) {
			http.Error(w, "no completed run yet", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch last run summary")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
