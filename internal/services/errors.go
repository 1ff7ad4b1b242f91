package services

import (
	"errors"
	"fmt"

	"quiz-ai/internal/db"
)

// Error kinds. Every failure the generation pipeline returns wraps exactly
// one of these.
var (
	ErrParse             = errors.New("pdf parse failed")
	ErrValidation        = errors.New("invalid input")
	ErrRateLimited       = errors.New("rate limited")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrUpstream          = errors.New("upstream error")
	ErrTransport         = errors.New("transport error")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrMissingCredential = errors.New("ai gateway credential is not configured")

	ErrNotFound     = db.ErrNotFound
	ErrNoDueCards   = errors.New("no due cards")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmailExists  = errors.New("email already registered")
)

const (
	msgRateLimited   = "Limite de requisições excedido. Tente novamente mais tarde."
	msgQuotaExceeded = "Créditos insuficientes. Por favor, adicione créditos ao seu workspace."
	msgUpstream      = "Erro ao processar PDF com IA"
	msgNoContent     = "Resposta inválida da IA"
	msgUnparsable    = "Erro ao processar resposta da IA"
	msgParse         = "Não foi possível ler o PDF"
	msgTransport     = "Falha de comunicação com o serviço de IA"
	msgMissingKey    = "Serviço de IA não configurado"
)

// Error carries a kind, a message that is safe to show users, and
// diagnostics that belong in logs only.
type Error struct {
	Kind    error
	Message string
	Details string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// UserMessage returns the user-facing text for err, falling back to def when
// err carries no safe message.
func UserMessage(err error, def string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return def
}

// Diagnostics returns the log-only details attached to err, if any.
func Diagnostics(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return ""
}
