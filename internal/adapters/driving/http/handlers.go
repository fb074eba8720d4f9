package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports readiness of the queue database and reference cache
// @Description Readiness of the device's local dependencies
type ReadyResponse struct {
	Status string `json:"status" example:"ready"`
	Queue  string `json:"queue" example:"ok"`
	Cache  string `json:"cache,omitempty" example:"ok"`
	Online bool   `json:"online"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness of the queue database and reference cache. The ledger being unreachable does not fail readiness; offline is a normal operating state.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse  "Queue database unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Queue: "ok"}
	if s.monitor != nil {
		resp.Online = s.monitor.Online()
	}

	status := http.StatusOK
	if err := s.db.Ping(r.Context()); err != nil {
		resp.Status = "not ready"
		resp.Queue = err.Error()
		status = http.StatusServiceUnavailable
	}
	if s.cache != nil {
		resp.Cache = "ok"
		if err := s.cache.Ping(r.Context()); err != nil {
			// Degraded but serviceable: reference lookups fall back to
			// the local store.
			resp.Cache = err.Error()
		}
	}

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleLogin godoc
// @Summary      Clerk login
// @Description  Authenticate with a clerk id and PIN to receive a session token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials or clerk disabled"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Capture endpoints

// handleCaptureDelivery godoc
// @Summary      Capture a delivery
// @Description  Validates, guard-checks and enqueues a producer delivery. Returns 409 with the existing workflow id when the advisory duplicate guard refuses.
// @Tags         Capture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.DeliveryCaptureRequest  true  "Delivery reading"
// @Success      201      {object}  domain.DeliveryRecord
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      409      {object}  ErrorResponse  "Producer already delivered this session"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /captures/delivery [post]
func (s *Server) handleCaptureDelivery(w http.ResponseWriter, r *http.Request) {
	var req driving.DeliveryCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClerkID == "" {
		if authCtx := GetAuthContext(r.Context()); authCtx != nil {
			req.ClerkID = authCtx.ClerkID
		}
	}

	rec, err := s.captureService.CaptureDelivery(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDeliveryBlocked):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "capture failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// handleCaptureSale godoc
// @Summary      Capture a sale
// @Description  Enqueues the lines of one purchase event under a shared workflow id. Either all lines are accepted or none are.
// @Tags         Capture
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.SaleCaptureRequest  true  "Sale lines"
// @Success      201      {array}   domain.SaleRecord
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /captures/sale [post]
func (s *Server) handleCaptureSale(w http.ResponseWriter, r *http.Request) {
	var req driving.SaleCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClerkID == "" {
		if authCtx := GetAuthContext(r.Context()); authCtx != nil {
			req.ClerkID = authCtx.ClerkID
		}
	}

	recs, err := s.captureService.CaptureSale(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "capture failed")
		return
	}

	writeJSON(w, http.StatusCreated, recs)
}

// Queue read models

// handlePending godoc
// @Summary      Pending status
// @Description  Returns the queue depth, connectivity state and last pass outcome for UI banners
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PendingStatus
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /pending [get]
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	status, err := s.captureService.Pending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "pending status failed")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleListQueue godoc
// @Summary      List the outstanding queue
// @Description  Returns every queued delivery and sale line, flagged records included, for support diagnosis
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.QueueListing
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /queue [get]
func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	listing, err := s.captureService.ListQueue(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "queue listing failed")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// Sync endpoints

// handleTriggerSync godoc
// @Summary      Trigger a reconciliation pass
// @Description  Runs one reconciliation pass immediately. A refused gate or an offline ledger yields a skipped result with 202, never an error.
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PassResult  "Pass ran"
// @Success      202  {object}  domain.PassResult  "Pass skipped"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /sync [post]
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.syncService.RunPass(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sync pass failed")
		return
	}

	status := http.StatusOK
	if result.Status == domain.PassSkipped || result.Status == domain.PassSkippedOffline {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

// SyncStatusResponse reports the most recent pass and when it ran
// @Description Most recent reconciliation pass
type SyncStatusResponse struct {
	LastPass   *domain.PassResult `json:"last_pass,omitempty"`
	LastPassAt string             `json:"last_pass_at,omitempty"`
	Online     bool               `json:"online"`
}

// handleSyncStatus godoc
// @Summary      Sync status
// @Description  Returns the outcome and timestamp of the most recent reconciliation pass
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SyncStatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /sync/status [get]
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	resp := SyncStatusResponse{}
	if s.monitor != nil {
		resp.Online = s.monitor.Online()
	}
	if result, ok := s.syncService.LastResult(); ok {
		resp.LastPass = result
	}
	if at, ok := s.syncService.LastPassAt(); ok {
		resp.LastPassAt = at.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Guard endpoint

// handleGuardCheck godoc
// @Summary      Delivery guard check
// @Description  Answers whether the producer may capture a new delivery in the given session. Advisory only; the authoritative check runs during the reconciliation pass.
// @Tags         Guard
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true   "Producer id"
// @Param        session   query     string  true   "Session (AM or PM)"
// @Param        date      query     string  false  "Capture date, YYYY-MM-DD (defaults to today)"
// @Param        workflow  query     string  false  "Workflow id of an in-progress capture"
// @Success      200       {object}  driving.GuardDecision
// @Failure      400       {object}  ErrorResponse  "Invalid session or date"
// @Failure      401       {object}  ErrorResponse  "Unauthorized"
// @Failure      500       {object}  ErrorResponse  "Internal server error"
// @Router       /producers/{id}/guard [get]
func (s *Server) handleGuardCheck(w http.ResponseWriter, r *http.Request) {
	producerID := r.PathValue("id")
	if producerID == "" {
		writeError(w, http.StatusBadRequest, "producer id is required")
		return
	}

	session := domain.Session(r.URL.Query().Get("session"))
	if !session.Valid() {
		writeError(w, http.StatusBadRequest, "session must be AM or PM")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = domain.CaptureDate(time.Now())
	} else if _, err := time.Parse(domain.DateFormat, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	decision, err := s.guardService.Check(r.Context(), producerID, session, date, r.URL.Query().Get("workflow"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "guard check failed")
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
