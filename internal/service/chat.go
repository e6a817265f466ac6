// Package service provides business logic for the travel-assistant gateway.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/internal/apperr"
	"github.com/wanderai/travel-gateway/internal/events"
	"github.com/wanderai/travel-gateway/internal/model"
	"github.com/wanderai/travel-gateway/internal/provider"
	"github.com/wanderai/travel-gateway/internal/session"
	"github.com/wanderai/travel-gateway/pkg/logger"
	"github.com/wanderai/travel-gateway/pkg/metrics"
)

const maxMessageLen = 4000

// enginePrompt instructs the provider to answer as the travel assistant and
// emit a machine-parseable reply.
const enginePrompt = `You are WanderAI, a travel assistant helping users discover destinations, plan itineraries and refine travel searches.
Answer with a single JSON object and nothing else, using these fields:
  "reply": your answer to the user,
  "type": one of "text", "suggestion" or "itinerary",
  "data": an object with any structured details (destinations, days, tips),
  "suggested_place_name": the place you are suggesting, if any,
  "refined_query": a sharper search query derived from the conversation, if any,
  "module_used": the capability you used ("suggestion", "itinerary", "refine" or "chat"),
  "confidence": how confident you are in this answer, between 0.0 and 1.0.`

// ChatService orchestrates one chat turn: session resolution, provider
// dispatch, reply parsing and session bookkeeping.
type ChatService struct {
	store      *session.Store
	dispatcher *provider.Dispatcher
	publisher  events.Publisher
	logger     *logger.Logger
}

// NewChatService creates a chat service.
func NewChatService(store *session.Store, dispatcher *provider.Dispatcher, pub events.Publisher, log *logger.Logger) *ChatService {
	return &ChatService{
		store:      store,
		dispatcher: dispatcher,
		publisher:  pub,
		logger:     log,
	}
}

// Process runs one chat turn and returns the structured result together with
// the session id the caller should reuse. Session history is only mutated
// after a successful provider reply, so a failed turn leaves no trace.
func (s *ChatService) Process(ctx context.Context, req *model.ChatRequest) (*model.ChatResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "message is required")
	}
	if len(message) > maxMessageLen {
		return nil, apperr.New(apperr.KindInvalidInput, "message exceeds maximum length")
	}

	// Unknown ids are adopted as fresh sessions; suggested places supplied by
	// the client only seed a session that did not exist yet.
	view, created := s.store.GetOrCreate(req.SessionID, req.SuggestedPlaces)
	if created && req.SessionID != "" {
		s.logger.Debug("adopted client-supplied session id", zap.String("session_id", view.ID))
	}

	reply, err := s.dispatcher.Dispatch(ctx, buildRequest(view, message))
	if err != nil {
		var exhausted *provider.ExhaustedError
		if errors.As(err, &exhausted) {
			s.logger.Error("all providers exhausted",
				zap.String("session_id", view.ID),
				zap.Int("attempts", len(exhausted.Attempts)),
			)
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "no provider available", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "dispatch failed", err)
	}

	result := parseReply(reply.Text)
	result.SessionID = view.ID
	if result.ModuleUsed == "" {
		result.ModuleUsed = reply.Provider
	}

	if err := s.store.AppendExchange(view.ID, message, result.Reply); err != nil {
		return nil, err
	}
	if result.SuggestedPlaceName != "" {
		if err := s.store.RecordSuggestedPlace(view.ID, result.SuggestedPlaceName); err != nil {
			return nil, err
		}
	}

	metrics.ChatTurnsTotal.WithLabelValues(reply.Provider, string(result.ValidationStatus)).Inc()
	s.publisher.PublishChatTurn(ctx, &events.ChatTurnEvent{
		SessionID:        view.ID,
		Provider:         reply.Provider,
		ResultType:       result.Type,
		ValidationStatus: string(result.ValidationStatus),
		CreatedAt:        time.Now(),
	})

	return result, nil
}

// Session returns the read-only state of an existing session.
func (s *ChatService) Session(id string) (model.SessionView, error) {
	return s.store.Snapshot(id)
}

// buildRequest assembles the provider-facing context: the full turn history
// followed by the new user message carrying the engine instructions and the
// places already suggested to this user.
func buildRequest(view model.SessionView, message string) *provider.Request {
	messages := make([]provider.Message, 0, len(view.History)+1)
	for _, turn := range view.History {
		messages = append(messages, provider.Message{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	var b strings.Builder
	b.WriteString(enginePrompt)
	if len(view.SuggestedPlaces) > 0 {
		b.WriteString("\nPlaces already suggested to this user (do not repeat them): ")
		b.WriteString(strings.Join(view.SuggestedPlaces, ", "))
	}
	b.WriteString("\n\nUser message: ")
	b.WriteString(message)

	messages = append(messages, provider.Message{
		Role:    string(model.RoleUser),
		Content: b.String(),
	})

	return &provider.Request{
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}
