package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"quiz-ai/internal/config"
	"quiz-ai/internal/redact"
	"quiz-ai/internal/telemetry"
)

// AIService sends one chat-completion request per call to the configured
// OpenAI-compatible gateway. It never retries.
type AIService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	inst    *telemetry.Instruments
}

func NewAIService(cfg config.GatewayConfig, inst *telemetry.Instruments) *AIService {
	if inst == nil {
		inst, _ = telemetry.NewInstruments()
	}
	s := &AIService{model: cfg.Model, timeout: cfg.Timeout, inst: inst}
	if cfg.APIKey == "" {
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{}
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

func (s *AIService) disabled() bool {
	return s.client == nil || s.model == ""
}

// Complete returns the text of the first choice of the model's reply.
func (s *AIService) Complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if s.disabled() {
		return "", newError(ErrMissingCredential, msgMissingKey, nil)
	}
	if req.Model == "" {
		req.Model = s.model
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := s.inst.Tracer.Start(ctx, "ai.gateway.chat")
	defer span.End()
	span.SetAttributes(attribute.String("ai.model", req.Model))

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		err = classifyGatewayError(err)
		outcome = kindLabel(err)
		span.RecordError(errors.New(redact.Error(err)))
		span.SetStatus(codes.Error, outcome)
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.inst.GatewayRequests.Add(ctx, 1, attrs)
	s.inst.GatewayDuration.Record(ctx, elapsed.Seconds(), attrs)

	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		span.SetStatus(codes.Error, "empty reply")
		return "", &Error{
			Kind:    ErrMalformedResponse,
			Message: msgNoContent,
			Details: fmt.Sprintf("choices=%d", len(resp.Choices)),
		}
	}

	slog.Debug("ai gateway reply received",
		"model", req.Model,
		"duration_ms", elapsed.Milliseconds(),
		"finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// classifyGatewayError maps a go-openai error onto the error taxonomy.
// HTTP failures carry a status; everything else is a transport failure.
func classifyGatewayError(err error) error {
	status := 0
	body := ""

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		body = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		body = string(reqErr.Body)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Kind: ErrRateLimited, Message: msgRateLimited, Status: status, Err: err}
	case status == http.StatusPaymentRequired:
		return &Error{Kind: ErrQuotaExceeded, Message: msgQuotaExceeded, Status: status, Err: err}
	case status != 0:
		slog.Error("ai gateway error", "status", status, "body", redact.String(body))
		return &Error{Kind: ErrUpstream, Message: msgUpstream, Status: status, Details: redact.String(body), Err: err}
	case isDecodeError(err):
		slog.Warn("ai gateway reply is not a chat completion", "error", redact.Error(err))
		return &Error{Kind: ErrMalformedResponse, Message: msgNoContent, Err: err}
	default:
		slog.Warn("ai gateway unreachable", "error", redact.Error(err))
		return &Error{Kind: ErrTransport, Message: msgTransport, Err: err}
	}
}

// isDecodeError reports whether the gateway answered but its body could not
// be decoded as a chat completion.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func kindLabel(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
