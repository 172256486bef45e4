package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maltedev/lazada-scraper/internal/jobs"
	"github.com/maltedev/lazada-scraper/internal/models"
)

type Handlers struct {
	jobs   *jobs.Manager
	logger *slog.Logger
}

func NewHandlers(jobManager *jobs.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:   jobManager,
		logger: logger,
	}
}

// Routes mounts all API endpoints on a chi router.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/jobs", h.CreateJob)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{jobID}", h.GetJob)
	r.Get("/jobs/{jobID}/records", h.GetJobRecords)
	r.Get("/stats", h.GetStats)
}

// CreateJobRequest is a new scrape job submission.
type CreateJobRequest struct {
	Query        string   `json:"query"`
	BaseURL      string   `json:"base_url,omitempty"`
	MaxPages     int      `json:"max_pages"`
	MinPrice     float64  `json:"min_price"`
	MaxPrice     float64  `json:"max_price"`
	IncludeWords []string `json:"include_words,omitempty"`
	ExcludeWords []string `json:"exclude_words,omitempty"`
}

type CreateJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateJob handles new scrape job creation.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.MaxPages <= 0 {
		req.MaxPages = 10
	}
	if req.MinPrice < 0 || (req.MaxPrice > 0 && req.MaxPrice < req.MinPrice) {
		h.respondError(w, http.StatusBadRequest, "invalid price range")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), jobs.CreateJobParams{
		Query:    req.Query,
		BaseURL:  req.BaseURL,
		MaxPages: req.MaxPages,
		Filters: models.Filters{
			MinPrice:     req.MinPrice,
			MaxPrice:     req.MaxPrice,
			IncludeWords: req.IncludeWords,
			ExcludeWords: req.ExcludeWords,
		},
	})
	if err != nil {
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateJobResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Job created successfully",
	})
}

// GetJob handles job status retrieval.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get job", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// ListJobs handles listing recent jobs.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if list == nil {
		list = []*jobs.Job{}
	}

	h.respondJSON(w, http.StatusOK, list)
}

// GetJobRecords handles retrieving the products a job produced.
func (h *Handlers) GetJobRecords(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	records, err := h.jobs.GetJobRecords(r.Context(), jobID)
	if err != nil {
		h.logger.Error("failed to get job records", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get records")
		return
	}
	if records == nil {
		records = []models.ProductRecord{}
	}

	h.respondJSON(w, http.StatusOK, records)
}

// GetStats handles statistics retrieval.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
