package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/ports"
)

const maxRequestBytes = 64 * 1024

// CheckURLRequest is the body of POST /checkurl
type CheckURLRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPServer exposes URL assessment over HTTP
type HTTPServer struct {
	assessor       ports.Assessor
	logger         *zap.Logger
	listenAddr     string
	readTimeout    time.Duration
	writeTimeout   time.Duration
	metricsPath    string
	metricsHandler http.Handler
	server         *http.Server
}

// NewHTTPServer creates a new HTTP transport. metricsHandler may be nil.
func NewHTTPServer(
	assessor ports.Assessor,
	logger *zap.Logger,
	listenAddr string,
	readTimeout time.Duration,
	writeTimeout time.Duration,
	metricsPath string,
	metricsHandler http.Handler,
) *HTTPServer {
	return &HTTPServer{
		assessor:       assessor,
		logger:         logger,
		listenAddr:     listenAddr,
		readTimeout:    readTimeout,
		writeTimeout:   writeTimeout,
		metricsPath:    metricsPath,
		metricsHandler: metricsHandler,
	}
}

// Router builds the chi router serving the endpoints
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/checkurl", s.handleCheckURL)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metricsHandler != nil && s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.metricsHandler)
	}
	return r
}

// Start starts listening in the background
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.Router(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	s.logger.Info("HTTP server starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down, letting in-flight requests finish
func (s *HTTPServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// CheckURL assesses url directly
func (s *HTTPServer) CheckURL(ctx context.Context, url string) (*core.Verdict, error) {
	return s.assessor.Assess(ctx, url)
}

func (s *HTTPServer) handleCheckURL(w http.ResponseWriter, r *http.Request) {
	var req CheckURLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	verdict, err := s.CheckURL(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn("Assessment abandoned",
			zap.String("url", req.URL),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "assessment did not complete"})
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
