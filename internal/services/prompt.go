package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"

	"quiz-ai/internal/models"
)

const (
	maxSourceRunes  = 10000
	MinQuestions    = 1
	MaxQuestions    = 50
	sourceTextLabel = "Conteúdo do PDF:\n\n"
)

const systemPromptTemplate = `Você é um assistente especializado em criar questões de múltipla escolha para estudantes.
Gere exatamente %d questões sobre %s baseadas no conteúdo fornecido.
Cada questão deve ter exatamente 4 alternativas (A, B, C, D) e apenas uma correta ("correct": true).
Retorne APENAS um único objeto JSON válido, sem texto adicional, no formato:
{
  "questions": [
    {
      "question": "texto da questão",
      "alternatives": [
        {"text": "alternativa A", "correct": false},
        {"text": "alternativa B", "correct": true},
        {"text": "alternativa C", "correct": false},
        {"text": "alternativa D", "correct": false}
      ]
    }
  ]
}`

var validate = validator.New()

// NewGenerationRequest trims and validates the inputs of a generation.
func NewGenerationRequest(sourceText, subject string, count int) (models.GenerationRequest, error) {
	req := models.GenerationRequest{
		SourceText: sourceText,
		Subject:    strings.TrimSpace(subject),
		Count:      count,
	}
	if err := validate.Struct(req); err != nil {
		return models.GenerationRequest{}, newError(ErrValidation, validationMessage(err), err)
	}
	return req, nil
}

// BuildChatRequest renders the chat-completion request for req. Only the
// first 10,000 characters of the source text are sent.
func BuildChatRequest(model string, req models.GenerationRequest) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTemplate, req.Count, req.Subject),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: sourceTextLabel + truncateRunes(req.SourceText, maxSourceRunes),
			},
		},
	}
}

func truncateRunes(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Dados inválidos"
	}
	switch verrs[0].Field() {
	case "Subject":
		return "A matéria é obrigatória"
	case "Count":
		return fmt.Sprintf("O número de questões deve estar entre %d e %d", MinQuestions, MaxQuestions)
	default:
		return "Dados inválidos"
	}
}
