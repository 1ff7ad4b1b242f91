package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quiz-ai/internal/config"
	"quiz-ai/internal/redact"
	"quiz-ai/internal/services"
)

const (
	maxMultipartMemory = 8 << 20 // 8 MB
	multipartOverhead  = 1 << 20
	maxJSONBody        = 64 << 10
)

type Server struct {
	router     chi.Router
	uploads    config.UploadConfig
	pdf        *services.PDFService
	questions  *services.QuestionService
	flashcards *services.FlashcardService
	sessions   *services.SessionService
	jobs       *JobManager
}

func NewServer(
	uploads config.UploadConfig,
	pdf *services.PDFService,
	questions *services.QuestionService,
	flashcards *services.FlashcardService,
	sessions *services.SessionService,
) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		uploads:    uploads,
		pdf:        pdf,
		questions:  questions,
		flashcards: flashcards,
		sessions:   sessions,
		jobs:       NewJobManager(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	r.Use(s.loadSession)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/generate-questions-from-pdf", s.handleGenerateQuestions)

		r.Route("/questions/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/{id}", s.handleJobStatus)
			r.Delete("/{id}", s.handleCancelJob)
		})

		r.Route("/flashcards", func(r chi.Router) {
			r.Post("/", s.handleCreateDeck)
			r.Get("/{id}", s.handleGetDeck)
			r.Get("/{id}/next", s.handleNextCard)
			r.Post("/{id}/cards/{index}/review", s.handleReviewCard)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
			r.With(requireSession).Post("/logout", s.handleLogout)
			r.With(requireSession).Get("/me", s.handleMe)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrQuotaExceeded):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the safe message of err. Diagnostics and
// causes only reach the logs, and only after redaction.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	attrs := []any{
		"status", status,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", redact.Error(err),
	}
	if status >= http.StatusInternalServerError {
		if details := services.Diagnostics(err); details != "" {
			attrs = append(attrs, "details", redact.String(details))
		}
		slog.Error("request failed", attrs...)
	} else {
		slog.Info("request rejected", attrs...)
	}

	def := "Erro desconhecido"
	if status == http.StatusNotFound {
		def = "not found"
	}
	writeError(w, status, services.UserMessage(err, def))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
