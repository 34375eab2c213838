package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"climate-dashboard/internal/domain"
	"climate-dashboard/internal/fallback"
)

const (
	defaultMaxHistory    = 10
	defaultMaxMessageLen = 1000
	capabilityChat       = "chat"
)

// ChatProvider is one text-generation backend, in priority order.
type ChatProvider struct {
	Name      string
	Available func() bool
	Generate  func(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// TranscriptStore persists chat exchanges. It is optional.
type TranscriptStore interface {
	GetHistory(ctx context.Context, conversationID string, limit int) ([]domain.ChatMessage, error)
	SaveTurn(ctx context.Context, conversationID, message, response, source string) error
}

type ChatConfig struct {
	MaxHistoryItems  int
	MaxMessageLength int
	ProviderTimeout  time.Duration
}

type ChatInput struct {
	Message        string
	History        []domain.ChatMessage
	ConversationID string
}

type ChatOutput struct {
	Response       string
	Source         string
	ConversationID string
}

// chatRequest is what each provider in the chain receives.
type chatRequest struct {
	message  string
	messages []domain.ChatMessage
}

type ChatService struct {
	chain      *fallback.Chain[chatRequest, string]
	store      TranscriptStore
	log        zerolog.Logger
	maxHistory int
	maxMessage int
}

// NewChatService builds the chat pipeline. store may be nil.
func NewChatService(providers []ChatProvider, store TranscriptStore, log zerolog.Logger, cfg ChatConfig) (*ChatService, error) {
	descriptors := make([]fallback.Descriptor[chatRequest, string], 0, len(providers))
	for _, p := range providers {
		if p.Generate == nil {
			return nil, errors.New("usecase: chat provider " + p.Name + " has no generate func")
		}
		generate := p.Generate
		descriptors = append(descriptors, fallback.Descriptor[chatRequest, string]{
			Name:      p.Name,
			Available: p.Available,
			Invoke: func(ctx context.Context, req chatRequest) (string, error) {
				return generate(ctx, req.messages)
			},
		})
	}

	chain, err := fallback.NewChain(capabilityChat, descriptors,
		func(req chatRequest) string { return KeywordReply(req.message) },
		fallback.WithTimeout(cfg.ProviderTimeout),
		fallback.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	if cfg.MaxHistoryItems <= 0 {
		cfg.MaxHistoryItems = defaultMaxHistory
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = defaultMaxMessageLen
	}
	return &ChatService{
		chain:      chain,
		store:      store,
		log:        log,
		maxHistory: cfg.MaxHistoryItems,
		maxMessage: cfg.MaxMessageLength,
	}, nil
}

// Reply answers message using the first text-generation provider that
// succeeds, or a keyword-matched canned sentence.
func (s *ChatService) Reply(ctx context.Context, in ChatInput) (ChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(message) > s.maxMessage {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}

	convID := strings.TrimSpace(in.ConversationID)
	history := sanitizeHistory(in.History, s.maxHistory)
	if len(history) == 0 && convID != "" && s.store != nil {
		stored, err := s.store.GetHistory(ctx, convID, (s.maxHistory+1)/2)
		if err != nil {
			s.log.Warn().Err(err).Str("conversation_id", convID).Msg("failed to load transcript, continuing without history")
		} else {
			history = sanitizeHistory(stored, s.maxHistory)
		}
	}
	if convID == "" {
		convID = newUUID()
	}

	res := s.chain.Resolve(ctx, chatRequest{
		message:  message,
		messages: buildChatMessages(history, message),
	})

	if s.store != nil {
		if err := s.store.SaveTurn(ctx, convID, message, res.Payload, res.Source); err != nil {
			s.log.Warn().Err(err).Str("conversation_id", convID).Msg("failed to save transcript")
		}
	}

	return ChatOutput{
		Response:       res.Payload,
		Source:         res.Source,
		ConversationID: convID,
	}, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
