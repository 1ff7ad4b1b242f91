package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quiz-ai/internal/services"
)

const defaultQuestionCount = 5

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	data, err := s.readPDFUpload(w, r, s.uploads.MaxPDFBytes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	count, err := parseQuestionCount(r.FormValue("numQuestions"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	questions, err := s.questions.GenerateFromPDF(r.Context(), data, r.FormValue("subject"), count)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	data, err := s.readPDFUpload(w, r, s.uploads.MaxPDFBytes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	count, err := parseQuestionCount(r.FormValue("numQuestions"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	req, err := services.NewGenerationRequest("", r.FormValue("subject"), count)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	jobID, snapshot := s.jobs.CreateJob(req.Subject, req.Count, cancel)
	slog.Info("generation job created",
		"job_id", jobID,
		"subject", req.Subject,
		"request_id", middleware.GetReqID(r.Context()))

	go s.runGenerationJob(ctx, jobID, data, req.Subject, req.Count)

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) runGenerationJob(ctx context.Context, jobID string, data []byte, subject string, count int) {
	s.jobs.MarkProcessing(jobID)

	progress := func(step, message string, current, total int) {
		s.jobs.UpdateProgress(jobID, step, message, current, total)
	}
	questions, err := s.questions.GenerateFromPDFWithProgress(ctx, data, subject, count, progress)
	if err != nil {
		if ctx.Err() != nil {
			slog.Info("generation job stopped", "job_id", jobID)
			return
		}
		slog.Warn("generation job failed", "job_id", jobID, "error", err.Error())
		s.jobs.MarkFailed(jobID, services.UserMessage(err, "Erro desconhecido"))
		return
	}
	s.jobs.MarkCompleted(jobID, questions)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.GetJob(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.Cancel(id)
	if ok {
		writeJSON(w, http.StatusOK, job)
		return
	}
	if _, exists := s.jobs.GetJob(id); exists {
		writeError(w, http.StatusConflict, "job already finished")
		return
	}
	writeError(w, http.StatusNotFound, "job not found")
}

// readPDFUpload reads the "pdf" form file, bounded by limit bytes, and
// checks that it really is a PDF.
func (s *Server) readPDFUpload(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, services.SizeLimitError(limit)
		}
		return nil, &services.Error{Kind: services.ErrValidation, Message: "invalid multipart form", Err: err}
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("pdf")
	if err != nil {
		return nil, &services.Error{Kind: services.ErrValidation, Message: "PDF file is required", Err: err}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := s.pdf.CheckUpload(data, limit); err != nil {
		return nil, err
	}
	return data, nil
}

// parseQuestionCount defaults a missing value to 5 and clamps the rest
// into the supported range.
func parseQuestionCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultQuestionCount, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.Error{Kind: services.ErrValidation, Message: "numQuestions deve ser um número inteiro", Err: err}
	}
	return min(max(n, services.MinQuestions), services.MaxQuestions), nil
}
