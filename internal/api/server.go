// Package api exposes document question answering over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/seanblong/docask/internal/auth"
	"github.com/seanblong/docask/internal/extract"
	"github.com/seanblong/docask/internal/qa"
	"github.com/seanblong/docask/internal/store"
)

// DefaultMaxUploadBytes bounds request bodies carrying documents.
const DefaultMaxUploadBytes = 32 << 20

// Server wires the HTTP routes to the question answering service.
type Server struct {
	QA             *qa.Service
	Auth           *auth.Authenticator
	Limiter        *RateLimiter
	Logger         zerolog.Logger
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// NewServer creates a Server. auth and limiter may be nil.
func NewServer(svc *qa.Service, a *auth.Authenticator, limiter *RateLimiter, logger zerolog.Logger) *Server {
	return &Server{
		QA:             svc,
		Auth:           a,
		Limiter:        limiter,
		Logger:         logger,
		MaxUploadBytes: DefaultMaxUploadBytes,
		RequestTimeout: 60 * time.Second,
	}
}

// Routes returns the bare route table without logging or rate limiting.
func (s *Server) Routes() *http.ServeMux {
	protect := func(h http.HandlerFunc) http.Handler {
		if s.Auth == nil {
			return h
		}
		return s.Auth.Middleware(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("GET /auth/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.Auth.Enabled()})
	})

	mux.Handle("/api/ask", protect(s.handleAskText))
	mux.Handle("POST /retrieve", protect(s.handleRetrieve))

	mux.Handle("POST /documents", protect(s.handleUpload))
	mux.Handle("GET /documents", protect(s.handleListDocuments))
	mux.Handle("GET /documents/{id}", protect(s.handleGetDocument))
	mux.Handle("DELETE /documents/{id}", protect(s.handleDeleteDocument))
	mux.Handle("GET /documents/{id}/messages", protect(s.handleListMessages))
	mux.Handle("POST /documents/{id}/ask", protect(s.handleAsk))
	return mux
}

// Handler returns the full handler: access logging, CORS and rate limiting
// around the routes.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Routes()
	h = s.Limiter.Middleware(h)
	h = cors(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("dur", dur).
			Msg("http")
	})(h)
	return hlog.NewHandler(s.Logger)(h)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, qa.ErrEmptyQuestion),
		errors.Is(err, qa.ErrEmptyDocument),
		errors.Is(err, extract.ErrUnsupported),
		errors.Is(err, extract.ErrNoText),
		errors.Is(err, extract.ErrUnreadable):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, qa.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: http.StatusText(status)}
	switch status {
	case http.StatusInternalServerError:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	case http.StatusBadGateway:
		body.Error = "upstream error"
		body.Detail = err.Error()
		hlog.FromRequest(r).Warn().Err(err).Msg("provider failed")
	default:
		body.Detail = err.Error()
	}
	writeJSON(w, status, body)
}
