// Package webui serves the thread dump analysis JSON API.
package webui

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/threaddump-analysis/pkg/config"
	apperrors "github.com/threaddump-analysis/pkg/errors"
	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/utils"
)

// MaxListLimit caps the limit query parameter of GET /api/analyses.
const MaxListLimit = 200

// AnalysisService is the subset of the service used by the API.
type AnalysisService interface {
	AnalyzeDump(ctx context.Context, fileName string, content []byte) (*model.AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, limit int) ([]*model.AnalysisRecord, error)
	HealthCheck(ctx context.Context) error
}

// Server represents the API server.
type Server struct {
	svc          AnalysisService
	cfg          config.ServerConfig
	maxBodyBytes int64
	logger       utils.Logger
	server       *http.Server
}

// NewServer creates a new API server. maxBodyBytes limits upload size;
// 0 means no limit.
func NewServer(svc AnalysisService, cfg config.ServerConfig, maxBodyBytes int64, logger utils.Logger) *Server {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	s := &Server{
		svc:          svc,
		cfg:          cfg,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}
	return s
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/analyses", s.handleListAnalyses)
	mux.HandleFunc("GET /api/analyses/{id}", s.handleGetAnalysis)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.logRequests(mux)
}

// Start starts the server and blocks until it stops. It returns nil after
// Shutdown, even when Shutdown ran first.
func (s *Server) Start() error {
	s.logger.Info("Starting API server at http://%s", s.cfg.Addr())
	s.logger.Info("Press Ctrl+C to stop")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleAnalyze analyzes the request body. The file name comes from the
// filename query parameter; a gzip Content-Encoding is decoded.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	fileName := strings.TrimSpace(r.URL.Query().Get("filename"))
	if fileName == "" {
		s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "filename query parameter is required"))
		return
	}

	content, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.svc.AnalyzeDump(r.Context(), fileName, content)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusCreated
	if rec.Cached {
		status = http.StatusOK
	}
	s.writeJSON(w, status, rec)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var body io.Reader = r.Body
	if s.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}

	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid gzip body", err)
		}
		defer gz.Close()
		body = gz
		if s.maxBodyBytes > 0 {
			// Bound the decompressed size too.
			body = io.LimitReader(gz, s.maxBodyBytes+1)
		}
	}

	content, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.New(apperrors.CodeDumpTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to read request body", err)
	}
	if s.maxBodyBytes > 0 && int64(len(content)) > s.maxBodyBytes {
		return nil, apperrors.New(apperrors.CodeDumpTooLarge,
			fmt.Sprintf("decompressed body exceeds %d bytes", s.maxBodyBytes))
	}
	return content, nil
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = min(n, MaxListLimit)
	}

	recs, err := s.svc.ListAnalyses(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.GetAnalysis(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.HealthCheck(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetErrorCode(err)
	status := apperrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}

	s.writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    code,
		Message: apperrors.GetErrorMessage(err),
	}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Microsecond).String(),
		}).Debug("HTTP request")
	})
}
