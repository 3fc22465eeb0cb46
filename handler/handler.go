package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"support-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// Extra codes for transport-level failures.
const (
	errorNotFound         = "NOT_FOUND"
	errorMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// SupportUseCase is the application surface the HTTP routes drive.
type SupportUseCase interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
	Escalate(ctx context.Context, in usecase.EscalateInput) (usecase.EscalateOutput, error)
}

type Handler struct {
	uc     SupportUseCase
	logger *zap.Logger
}

type Option func(*Handler)

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(uc SupportUseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversationId,omitempty"`
}

type askResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversationId"`
	Source         string `json:"source"`
}

type supportRequest struct {
	ConversationID string `json:"conversationId"`
	Question       string `json:"question"`
	Email          string `json:"email,omitempty"`
}

type supportResponse struct {
	Status         string `json:"status"`
	ConversationID string `json:"conversationId,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handle serves API Gateway proxy events. Failures are always rendered as a
// JSON error body; the returned error is reserved for the Lambda runtime.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.logger.With(
		zap.String("correlation_id", correlationID),
		zap.String("method", event.HTTPMethod),
		zap.String("path", event.Path),
	)

	var resp events.APIGatewayProxyResponse
	switch route(event.Path, event.RequestContext.Stage) {
	case "ask":
		resp = h.post(event, func() events.APIGatewayProxyResponse { return h.ask(ctx, log, event.Body) })
	case "support":
		resp = h.post(event, func() events.APIGatewayProxyResponse { return h.support(ctx, log, event.Body) })
	default:
		resp = jsonResponse(http.StatusNotFound, errorResponse{Error: errorNotFound, Message: "Unknown route."})
	}

	resp.Headers[correlationHeader] = correlationID
	log.Info("request handled", zap.Int("status", resp.StatusCode))
	return resp, nil
}

func (h *Handler) post(event events.APIGatewayProxyRequest, serve func() events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if !strings.EqualFold(event.HTTPMethod, http.MethodPost) {
		resp := jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: errorMethodNotAllowed, Message: "Use POST."})
		resp.Headers["Allow"] = http.MethodPost
		return resp
	}
	return serve()
}

func (h *Handler) ask(ctx context.Context, log *zap.Logger, body string) events.APIGatewayProxyResponse {
	var req askRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return invalidBody()
	}
	out, err := h.uc.Ask(ctx, usecase.AskInput{Question: req.Question, ConversationID: req.ConversationID})
	if err != nil {
		return errorToResponse(log, err)
	}
	return jsonResponse(http.StatusOK, askResponse{
		Answer:         out.Answer,
		ConversationID: out.ConversationID,
		Source:         out.Source,
	})
}

func (h *Handler) support(ctx context.Context, log *zap.Logger, body string) events.APIGatewayProxyResponse {
	var req supportRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return invalidBody()
	}
	out, err := h.uc.Escalate(ctx, usecase.EscalateInput{
		Question:       req.Question,
		ConversationID: req.ConversationID,
		ReplyTo:        req.Email,
	})
	if err != nil {
		return errorToResponse(log, err)
	}
	return jsonResponse(http.StatusOK, supportResponse{Status: out.Status, ConversationID: out.ConversationID})
}

// route matches the whole path, optionally under the API Gateway stage.
func route(path, stage string) string {
	path = strings.TrimSuffix(path, "/")
	if stage != "" {
		if rest, ok := strings.CutPrefix(path, "/"+stage+"/"); ok {
			path = "/" + rest
		}
	}
	switch path {
	case "/ask":
		return "ask"
	case "/support":
		return "support"
	default:
		return ""
	}
}

func invalidBody() events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusBadRequest, errorResponse{
		Error:   string(usecase.ErrorInvalidInput),
		Message: "Request body must be valid JSON.",
	})
}

func errorToResponse(log *zap.Logger, err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		log.Error("unclassified error", zap.Error(err))
		return jsonResponse(http.StatusInternalServerError, errorResponse{
			Error:   string(usecase.ErrorInternal),
			Message: usecase.UserMessage(err),
		})
	}

	status := statusFor(ucErr)
	fields := []zap.Field{
		zap.String("code", string(ucErr.Code)),
		zap.String("reason", ucErr.Reason),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Warn("request rejected", fields...)
	}
	return jsonResponse(status, errorResponse{Error: string(ucErr.Code), Message: usecase.UserMessage(err)})
}

func statusFor(err *usecase.Error) int {
	switch err.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorConfiguration:
		return http.StatusServiceUnavailable
	case usecase.ErrorTransientNetwork:
		if err.Reason == "rate_limited" {
			return http.StatusTooManyRequests
		}
		return http.StatusGatewayTimeout
	case usecase.ErrorFatalAPI, usecase.ErrorMalformedResponse, usecase.ErrorNotification:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonResponse(status int, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR","message":"failed to encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
