package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	resultformservice "tally/contexts/results-processing/result-form-service"
	httpadapter "tally/contexts/results-processing/result-form-service/adapters/http"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tally/internal/platform/httpserver/docs"
)

const (
	apiPrefix   = "/api/tally/v1"
	tallyPrefix = apiPrefix + "/tallies/{tally_id}"

	maxBodyBytes = 32 << 20
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	tally   httpadapter.Handler
	metrics http.Handler
	server  *http.Server
}

// New builds the API server. A nil metrics handler leaves /metrics
// unregistered.
func New(
	module resultformservice.Module,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		tally:   module.Handler,
		metrics: metrics,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.registerWorkflowRoutes()
	s.registerReferenceRoutes()
	s.registerReportRoutes()
}

func callerFrom(r *http.Request) httptransport.Caller {
	return httptransport.Caller{
		UserID: strings.TrimSpace(r.Header.Get("X-User-Id")),
		Roles:  r.Header.Get("X-User-Roles"),
	}
}

// requireCaller writes 401 and returns false when X-User-Id is missing.
func requireCaller(w http.ResponseWriter, r *http.Request) (httptransport.Caller, bool) {
	caller := callerFrom(r)
	if caller.UserID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required", nil)
		return httptransport.Caller{}, false
	}
	return caller, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body is too large", nil)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return false
	}
	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be an integer", nil)
		return 0, false
	}
	return value, true
}

func queryList(r *http.Request, name string) []string {
	var items []string
	for _, raw := range r.URL.Query()[name] {
		for _, value := range strings.Split(raw, ",") {
			if value = strings.TrimSpace(value); value != "" {
				items = append(items, value)
			}
		}
	}
	return items
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var illegal domainerrors.IllegalTransitionError
	var incomplete domainerrors.IncompleteEntryError
	var duplicate domainerrors.DuplicateReferenceError
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, domainerrors.ErrDisabled):
		writeError(w, http.StatusLocked, "disabled", err.Error(), nil)
	case errors.As(err, &illegal):
		writeError(w, http.StatusConflict, "illegal_transition", err.Error(),
			[]string{string(illegal.Current), string(illegal.Attempted)})
	case errors.Is(err, domainerrors.ErrIllegalTransition):
		writeError(w, http.StatusConflict, "illegal_transition", err.Error(), nil)
	case errors.Is(err, domainerrors.ErrDuplicateBallotAssignment):
		writeError(w, http.StatusConflict, "duplicate_ballot_assignment", err.Error(), nil)
	case errors.As(err, &duplicate):
		writeError(w, http.StatusConflict, "duplicate_reference", "duplicate reference data", duplicate.Keys)
	case errors.Is(err, domainerrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, domainerrors.ErrFormHasResults):
		writeError(w, http.StatusConflict, "form_has_results", err.Error(), nil)
	case errors.As(err, &incomplete):
		writeError(w, http.StatusUnprocessableEntity, "incomplete_entry", "incomplete entry", incomplete.Missing)
	case errors.Is(err, domainerrors.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", err.Error(), nil)
	case errors.Is(err, domainerrors.ErrReviewIncomplete):
		writeError(w, http.StatusUnprocessableEntity, "review_incomplete", err.Error(), nil)
	case errors.Is(err, domainerrors.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
	case errors.Is(err, domainerrors.ErrAuthorizationFailed):
		writeError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, domainerrors.ErrIntegrityViolation):
		s.logger.Error("integrity violation surfaced to client",
			"event", "http_integrity_violation",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "integrity_violation", "integrity violation", nil)
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string, details []string) {
	writeJSON(w, status, httptransport.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
