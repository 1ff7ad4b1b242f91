package services

import (
	"context"
	"log/slog"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"quiz-ai/internal/models"
	"quiz-ai/internal/telemetry"
)

// ProgressCallback is called during generation to report progress.
type ProgressCallback func(step, message string, current, total int)

// Completer is the gateway boundary of the pipeline.
type Completer interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error)
}

// QuestionService turns a PDF into multiple-choice questions: extract text,
// build the prompt, call the gateway once, then parse and validate.
type QuestionService struct {
	pdf   *PDFService
	ai    Completer
	model string
	inst  *telemetry.Instruments
}

func NewQuestionService(pdf *PDFService, ai Completer, model string, inst *telemetry.Instruments) *QuestionService {
	if inst == nil {
		inst, _ = telemetry.NewInstruments()
	}
	return &QuestionService{pdf: pdf, ai: ai, model: model, inst: inst}
}

func (s *QuestionService) GenerateFromPDF(ctx context.Context, data []byte, subject string, count int) ([]models.GeneratedQuestion, error) {
	return s.GenerateFromPDFWithProgress(ctx, data, subject, count, nil)
}

// GenerateFromPDFWithProgress validates subject and count before touching
// the PDF, so bad input never costs an extraction.
func (s *QuestionService) GenerateFromPDFWithProgress(ctx context.Context, data []byte, subject string, count int, progress ProgressCallback) ([]models.GeneratedQuestion, error) {
	req, err := NewGenerationRequest("", subject, count)
	if err != nil {
		return nil, err
	}

	report(progress, "extract", "Extraindo texto do PDF", 10, 100)
	text, err := s.pdf.ExtractText(data)
	if err != nil {
		return nil, err
	}
	req.SourceText = text

	slog.Info("pdf text extracted",
		"subject", req.Subject,
		"runes", utf8.RuneCountInString(text),
		"requested", req.Count)

	return s.generate(ctx, req, progress)
}

// GenerateFromText runs the pipeline on already extracted text.
func (s *QuestionService) GenerateFromText(ctx context.Context, req models.GenerationRequest) ([]models.GeneratedQuestion, error) {
	req, err := NewGenerationRequest(req.SourceText, req.Subject, req.Count)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, req, nil)
}

func (s *QuestionService) generate(ctx context.Context, req models.GenerationRequest, progress ProgressCallback) ([]models.GeneratedQuestion, error) {
	ctx, span := s.inst.Tracer.Start(ctx, "questions.generate")
	defer span.End()

	report(progress, "generate", "Gerando questões com IA", 30, 100)
	content, err := s.ai.Complete(ctx, BuildChatRequest(s.model, req))
	if err != nil {
		return nil, err
	}

	report(progress, "parse", "Validando resposta da IA", 90, 100)
	questions, err := ParseQuestions(content)
	if err != nil {
		slog.Warn("ai reply rejected", "error", err.Error(), "reply_runes", utf8.RuneCountInString(content))
		return nil, err
	}

	switch {
	case len(questions) > req.Count:
		slog.Info("dropping surplus questions", "requested", req.Count, "received", len(questions))
		questions = questions[:req.Count]
	case len(questions) < req.Count:
		slog.Warn("fewer questions than requested", "requested", req.Count, "received", len(questions))
	}

	s.inst.Generations.Add(ctx, int64(len(questions)))
	report(progress, "complete", "Questões geradas", 100, 100)
	return questions, nil
}

func report(progress ProgressCallback, step, message string, current, total int) {
	if progress != nil {
		progress(step, message, current, total)
	}
}
