package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"quiz-ai/internal/models"
)

type questionsEnvelope struct {
	Questions []questionPayload `json:"questions" validate:"required,min=1,dive"`
}

type questionPayload struct {
	Question     string               `json:"question" validate:"required"`
	Alternatives []alternativePayload `json:"alternatives" validate:"len=4,dive"`
}

type alternativePayload struct {
	Text    string `json:"text" validate:"required"`
	Correct *bool  `json:"correct" validate:"required"`
}

// trim strips surrounding whitespace so blank text fails the required checks.
func (e *questionsEnvelope) trim() {
	for i := range e.Questions {
		q := &e.Questions[i]
		q.Question = strings.TrimSpace(q.Question)
		for j := range q.Alternatives {
			q.Alternatives[j].Text = strings.TrimSpace(q.Alternatives[j].Text)
		}
	}
}

// extractJSON returns the span from the first '{' to the last '}' after it,
// or the whole content when no such span exists.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return content
	}
	end := strings.LastIndex(content, "}")
	if end <= start {
		return content
	}
	return content[start : end+1]
}

// ParseQuestions decodes the model's reply into questions. Malformed JSON is
// ErrMalformedResponse; JSON of the wrong shape or with blank text is
// ErrSchemaViolation.
func ParseQuestions(content string) ([]models.GeneratedQuestion, error) {
	var envelope questionsEnvelope
	if err := json.Unmarshal([]byte(extractJSON(content)), &envelope); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, schemaError(content, fmt.Sprintf("%s is %s, want %s", typeErr.Field, typeErr.Value, typeErr.Type))
		}
		return nil, &Error{
			Kind:    ErrMalformedResponse,
			Message: msgUnparsable,
			Details: content,
			Err:     err,
		}
	}

	envelope.trim()
	if err := validate.Struct(envelope); err != nil {
		return nil, schemaError(content, describeViolation(err))
	}

	questions := make([]models.GeneratedQuestion, len(envelope.Questions))
	for i, q := range envelope.Questions {
		correct := 0
		alternatives := make([]models.Alternative, len(q.Alternatives))
		for j, alt := range q.Alternatives {
			if *alt.Correct {
				correct++
			}
			alternatives[j] = models.Alternative{Text: alt.Text, Correct: *alt.Correct}
		}
		if correct != 1 {
			return nil, schemaError(content, fmt.Sprintf("question %d has %d correct alternatives", i, correct))
		}
		questions[i] = models.GeneratedQuestion{Question: q.Question, Alternatives: alternatives}
	}
	return questions, nil
}

func schemaError(content, reason string) *Error {
	return &Error{
		Kind:    ErrSchemaViolation,
		Message: msgUnparsable,
		Details: reason + ": " + content,
		Err:     errors.New(reason),
	}
}

func describeViolation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}
