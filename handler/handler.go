package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"climate-dashboard/internal/domain"
	"climate-dashboard/internal/usecase"
)

const (
	chatPath        = "/chat"
	environmentPath = "/environmental-data"

	correlationHeader = "X-Correlation-Id"
)

type ChatReplier interface {
	Reply(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type EnvironmentAssembler interface {
	Assemble(ctx context.Context, in usecase.EnvironmentInput) (usecase.EnvironmentOutput, error)
}

type Handler struct {
	chat ChatReplier
	env  EnvironmentAssembler
	log  zerolog.Logger
}

func NewHandler(chat ChatReplier, env EnvironmentAssembler, log zerolog.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat replier must not be nil")
	}
	if env == nil {
		return nil, errors.New("handler: environment assembler must not be nil")
	}
	return &Handler{chat: chat, env: env, log: log}, nil
}

type chatRequest struct {
	Message        string               `json:"message"`
	History        []domain.ChatMessage `json:"history,omitempty"`
	ConversationID string               `json:"conversationId,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	Source         string `json:"source,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Error          string `json:"error,omitempty"`
}

type environmentResponse struct {
	Success   bool                          `json:"success"`
	Data      *usecase.EnvironmentData      `json:"data,omitempty"`
	Sources   map[usecase.Capability]string `json:"sources,omitempty"`
	Timestamp string                        `json:"timestamp,omitempty"`
	Error     string                        `json:"error,omitempty"`
	Reason    string                        `json:"reason,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handle routes an API Gateway proxy event. It never returns a Go error:
// every outcome is encoded as an HTTP response.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.log.With().Str("correlation_id", correlationID).Str("method", event.HTTPMethod).Str("path", event.Path).Logger()

	path := strings.TrimSuffix(event.Path, "/")
	var resp events.APIGatewayProxyResponse
	switch {
	case event.HTTPMethod == http.MethodOptions:
		resp = respond(http.StatusNoContent, nil)
	case strings.HasSuffix(path, chatPath):
		if event.HTTPMethod != http.MethodPost {
			resp = respond(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"})
			break
		}
		resp = h.handleChat(ctx, log, event.Body)
	case strings.HasSuffix(path, environmentPath):
		if event.HTTPMethod != http.MethodGet {
			resp = respond(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"})
			break
		}
		resp = h.handleEnvironment(ctx, log, event.QueryStringParameters)
	default:
		resp = respond(http.StatusNotFound, errorResponse{Error: "NOT_FOUND"})
	}

	resp.Headers[correlationHeader] = correlationID
	log.Info().Int("status", resp.StatusCode).Msg("request handled")
	return resp, nil
}

func (h *Handler) handleChat(ctx context.Context, log zerolog.Logger, body string) (resp events.APIGatewayProxyResponse) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("chat request panicked")
			resp = chatFailure()
		}
	}()

	var req chatRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_json"})
	}

	out, err := h.chat.Reply(ctx, usecase.ChatInput{
		Message:        req.Message,
		History:        req.History,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
			return respond(http.StatusBadRequest, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason})
		}
		log.Error().Err(err).Msg("chat request failed")
		return chatFailure()
	}

	return respond(http.StatusOK, chatResponse{
		Response:       out.Response,
		Source:         out.Source,
		ConversationID: out.ConversationID,
	})
}

func chatFailure() events.APIGatewayProxyResponse {
	return respond(http.StatusInternalServerError, chatResponse{
		Response: usecase.ApologyResponse,
		Error:    string(usecase.ErrorInternal),
	})
}

func (h *Handler) handleEnvironment(ctx context.Context, log zerolog.Logger, query map[string]string) (resp events.APIGatewayProxyResponse) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("environmental data request panicked")
			resp = respond(http.StatusInternalServerError, environmentResponse{Error: string(usecase.ErrorInternal)})
		}
	}()

	loc, err := parseLocation(query)
	if err != nil {
		return respond(http.StatusBadRequest, environmentResponse{Error: string(usecase.ErrorInvalidInput), Reason: err.Error()})
	}

	out, err := h.env.Assemble(ctx, usecase.EnvironmentInput{Type: query["type"], Location: loc})
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
			return respond(http.StatusBadRequest, environmentResponse{Error: string(ucErr.Code), Reason: ucErr.Reason})
		}
		log.Error().Err(err).Msg("environmental data request failed")
		return respond(http.StatusInternalServerError, environmentResponse{Error: string(usecase.ErrorInternal)})
	}

	return respond(http.StatusOK, environmentResponse{
		Success:   true,
		Data:      &out.Data,
		Sources:   out.Sources,
		Timestamp: out.Timestamp.Format(time.RFC3339),
	})
}

// parseLocation returns nil when neither lat nor lng is given.
func parseLocation(query map[string]string) (*domain.Location, error) {
	latRaw := strings.TrimSpace(query["lat"])
	lngRaw := strings.TrimSpace(query["lng"])
	radiusRaw := strings.TrimSpace(query["radius"])
	if latRaw == "" && lngRaw == "" {
		if radiusRaw == "" {
			return nil, nil
		}
		loc := usecase.DefaultLocation
		r, err := strconv.ParseFloat(radiusRaw, 64)
		if err != nil {
			return nil, errors.New("invalid_radius")
		}
		loc.RadiusKm = r
		return &loc, nil
	}
	if latRaw == "" || lngRaw == "" {
		return nil, errors.New("lat_and_lng_required")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, errors.New("invalid_lat")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, errors.New("invalid_lng")
	}
	loc := domain.Location{Lat: lat, Lng: lng, RadiusKm: usecase.DefaultLocation.RadiusKm}
	if radiusRaw != "" {
		r, err := strconv.ParseFloat(radiusRaw, 64)
		if err != nil {
			return nil, errors.New("invalid_radius")
		}
		loc.RadiusKm = r
	}
	return &loc, nil
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func respond(status int, body any) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Correlation-Id",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
	}
	if body == nil {
		return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"error":"INTERNAL_ERROR"}`,
		}
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(b)}
}
