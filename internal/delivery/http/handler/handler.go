package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/delivery/http/request"
	"github.com/Yasuno-5555/investidabh/internal/delivery/http/response"
	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/Yasuno-5555/investidabh/internal/repository"
	"github.com/Yasuno-5555/investidabh/internal/usecase"
	"github.com/Yasuno-5555/investidabh/pkg/metrics"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Submitter enqueues new tasks.
type Submitter interface {
	Submit(ctx context.Context, id, target string, force bool) (entity.Task, error)
}

type Handler struct {
	submitter      Submitter
	queue          repository.TaskQueue
	investigations repository.InvestigationRepository
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

func NewHandler(submitter Submitter, queue repository.TaskQueue, investigations repository.InvestigationRepository, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		submitter:      submitter,
		queue:          queue,
		investigations: investigations,
		metrics:        m,
		logger:         logger.Named("http"),
	}
}

func (h *Handler) HandleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.submitter.Submit(r.Context(), req.ID, req.TargetURL, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyTask):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, usecase.ErrTaskRecentlySubmitted):
			h.writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to submit task", zap.String("task_id", req.ID), zap.Error(err))
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitTaskResponse{
		Status:     "success",
		Message:    "Task queued for collection",
		ID:         task.ID,
		TargetURL:  task.TargetURL,
		RetryCount: task.RetryCount,
	})
}

func (h *Handler) HandleQueueDepth(w http.ResponseWriter, r *http.Request) {
	primary, retry, err := usecase.RefreshQueueDepth(r.Context(), h.queue, h.metrics)
	if err != nil {
		h.logger.Error("failed to read queue depth", zap.Error(err))
		h.writeJSONError(w, "Queue unavailable", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, response.QueueResponse{Primary: primary, Retry: retry})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := response.HealthResponse{Status: "ok", Redis: "healthy", Postgres: "healthy"}
	if err := h.queue.Ping(ctx); err != nil {
		resp.Status, resp.Redis = "degraded", "unhealthy"
		h.logger.Error("health check failed for redis", zap.Error(err))
	}
	if err := h.investigations.Ping(ctx); err != nil {
		resp.Status, resp.Postgres = "degraded", "unhealthy"
		h.logger.Error("health check failed for postgres", zap.Error(err))
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
