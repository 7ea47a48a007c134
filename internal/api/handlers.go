// Package api exposes HTTP handlers for building activity summaries.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/activity"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/auth"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/persistence"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/report"
)

// maxBodyBytes bounds a request body; a year of days is far below it.
const maxBodyBytes = 4 << 20

// maxListLimit caps the page size of the rejection log.
const maxListLimit = 200

// RejectionLog stores and lists rejected batches.
type RejectionLog interface {
	Record(context.Context, report.Rejection) error
	ListRecent(ctx context.Context, username string, cursor *persistence.Cursor, limit int) ([]report.Rejection, *persistence.Cursor, error)
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithRejectionLog records API rejections and serves GET /v1/activity/rejections.
func WithRejectionLog(rejections RejectionLog) Option {
	return func(h *Handler) {
		h.rejections = rejections
	}
}

// WithLogger overrides the logger used to report rejection log failures.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler coordinates HTTP requests with the report service.
type Handler struct {
	service    *report.Service
	rejections RejectionLog
	logger     *log.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *report.Service, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  log.New(log.Writer(), "[api] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activity/summaries", h.summaries)
	if h.rejections != nil {
		mux.HandleFunc("/v1/activity/rejections", h.listRejections)
	}
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) summaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeSummariesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activity:summaries required")
		return
	}

	var req BuildSummaryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	rep, err := h.service.Build(r.Context(), report.SourceAPI, req.Username, req.Days)
	if err != nil {
		if activity.IsViolation(err) {
			h.recordRejection(r.Context(), req, err)
			writeError(w, http.StatusUnprocessableEntity, "invalid_activity", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		ReportID: rep.ID,
		Username: rep.Username,
		BuiltAt:  rep.BuiltAt,
		Summary:  rep.Summary,
	})
}

// recordRejection logs a refused request. A failing rejection log never changes the response.
func (h *Handler) recordRejection(ctx context.Context, req BuildSummaryRequest, cause error) {
	if h.rejections == nil {
		return
	}
	rejection, ok := h.service.RejectionFor(report.SourceAPI, req.Username, req.Days, cause)
	if !ok {
		return
	}
	if err := h.rejections.Record(ctx, rejection); err != nil {
		h.logger.Printf("record rejection (username=%s): %v", rejection.Username, err)
	}
}

func (h *Handler) listRejections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRejectionsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activity:rejections required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxListLimit {
			writeError(w, http.StatusBadRequest, "validation_failed", "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}
	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}
	username := strings.TrimSpace(r.URL.Query().Get("username"))

	rejections, next, err := h.rejections.ListRecent(r.Context(), username, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]RejectionResponse, 0, len(rejections))
	for _, rejection := range rejections {
		items = append(items, RejectionResponse{
			ID:         rejection.ID,
			Username:   rejection.Username,
			Source:     rejection.Source,
			DayIndex:   rejection.DayIndex,
			Kind:       rejection.Kind,
			Reason:     rejection.Reason,
			Payload:    rejection.Payload,
			RejectedAt: rejection.RejectedAt,
		})
	}
	writeJSON(w, http.StatusOK, RejectionListResponse{Items: items, NextCursor: persistence.EncodeCursor(next)})
}

// BuildSummaryRequest is the payload for POST /v1/activity/summaries. Days are the raw
// objects returned by the Lichess activity endpoint.
type BuildSummaryRequest struct {
	Username string            `json:"username"`
	Days     []json.RawMessage `json:"days"`
}

// Validate ensures request correctness.
func (r BuildSummaryRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	if r.Days == nil {
		return errors.New("days is required")
	}
	return nil
}

// SummaryResponse describes the response body for a built summary.
type SummaryResponse struct {
	ReportID string                   `json:"report_id"`
	Username string                   `json:"username"`
	BuiltAt  time.Time                `json:"built_at"`
	Summary  activity.ActivitySummary `json:"summary"`
}

// RejectionResponse is one entry of the rejection log.
type RejectionResponse struct {
	ID         int64           `json:"id"`
	Username   string          `json:"username"`
	Source     string          `json:"source"`
	DayIndex   int             `json:"day_index"`
	Kind       string          `json:"kind"`
	Reason     string          `json:"reason"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RejectedAt time.Time       `json:"rejected_at"`
}

// RejectionListResponse wraps rejection log entries, newest first.
type RejectionListResponse struct {
	Items      []RejectionResponse `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
