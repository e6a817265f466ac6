package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderai/travel-gateway/internal/apperr"
	"github.com/wanderai/travel-gateway/internal/events"
	"github.com/wanderai/travel-gateway/internal/model"
	"github.com/wanderai/travel-gateway/internal/provider"
	"github.com/wanderai/travel-gateway/internal/session"
	"github.com/wanderai/travel-gateway/pkg/logger"
)

type scriptedProvider struct {
	name    string
	replies []string
	err     error
	calls   int
	lastReq *provider.Request
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(ctx context.Context, req *provider.Request) (string, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return "", p.err
	}
	reply := p.replies[0]
	if len(p.replies) > 1 {
		p.replies = p.replies[1:]
	}
	return reply, nil
}

func newChatService(clients ...provider.Client) (*ChatService, *session.Store) {
	store := session.NewStore(30*time.Minute, 40, logger.NewNop())
	dispatcher := provider.NewDispatcher(clients, time.Second, logger.NewNop())
	svc := NewChatService(store, dispatcher, events.NoopPublisher{}, logger.NewNop())
	return svc, store
}

func TestProcessRejectsEmptyMessage(t *testing.T) {
	svc, _ := newChatService(&scriptedProvider{name: "p", replies: []string{"hi"}})

	_, err := svc.Process(context.Background(), &model.ChatRequest{Message: "   "})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestProcessCreatesSessionAndAppendsHistory(t *testing.T) {
	p := &scriptedProvider{name: "groq", replies: []string{
		`{"reply":"How about Nazaré?","type":"suggestion","suggested_place_name":"Nazaré","confidence":0.9}`,
		`{"reply":"It has huge waves in winter.","type":"text","confidence":0.8}`,
	}}
	svc, store := newChatService(p)

	result, err := svc.Process(context.Background(), &model.ChatRequest{Message: "Suggest a beach town"})
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)
	assert.Equal(t, "How about Nazaré?", result.Reply)
	assert.Equal(t, "Nazaré", result.SuggestedPlaceName)

	// Follow-up in the same session sees the prior exchange.
	followUp, err := svc.Process(context.Background(), &model.ChatRequest{
		Message:   "Tell me more",
		SessionID: result.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, followUp.SessionID)

	snap, err := store.Snapshot(result.SessionID)
	require.NoError(t, err)
	require.Len(t, snap.History, 4)
	assert.Equal(t, "Suggest a beach town", snap.History[0].Content)
	assert.Equal(t, "How about Nazaré?", snap.History[1].Content)
	assert.Equal(t, "Tell me more", snap.History[2].Content)

	// The provider saw the prior turns plus the new message.
	require.Len(t, p.lastReq.Messages, 3)
	assert.Equal(t, "Suggest a beach town", p.lastReq.Messages[0].Content)
	assert.Equal(t, "How about Nazaré?", p.lastReq.Messages[1].Content)
	assert.Contains(t, p.lastReq.Messages[2].Content, "Tell me more")
}

func TestProcessSuggestedPlaceRoundTrip(t *testing.T) {
	p := &scriptedProvider{name: "groq", replies: []string{
		`{"reply":"Try Lake Town.","type":"suggestion","suggested_place_name":"Lake Town","confidence":0.9}`,
		`{"reply":"Then try Lake Town again!","type":"suggestion","suggested_place_name":"Lake Town","confidence":0.9}`,
	}}
	svc, store := newChatService(p)

	first, err := svc.Process(context.Background(), &model.ChatRequest{Message: "Where should I go?"})
	require.NoError(t, err)

	// The next turn's provider context must carry the recorded place.
	_, err = svc.Process(context.Background(), &model.ChatRequest{
		Message:   "Somewhere else?",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)
	assert.Contains(t, p.lastReq.Messages[len(p.lastReq.Messages)-1].Content, "Lake Town")

	// Re-suggesting the same place does not duplicate it.
	snap, _ := store.Snapshot(first.SessionID)
	assert.Equal(t, []string{"Lake Town"}, snap.SuggestedPlaces)
}

func TestProcessSeedsSuggestedPlacesForNewSessionOnly(t *testing.T) {
	p := &scriptedProvider{name: "groq", replies: []string{`{"reply":"ok","confidence":0.9}`}}
	svc, store := newChatService(p)

	result, err := svc.Process(context.Background(), &model.ChatRequest{
		Message:         "hi",
		SessionID:       "fresh-id",
		SuggestedPlaces: []string{"Porto"},
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh-id", result.SessionID, "unknown client id is adopted")
	assert.Contains(t, p.lastReq.Messages[0].Content, "Porto")

	snap, _ := store.Snapshot("fresh-id")
	assert.Equal(t, []string{"Porto"}, snap.SuggestedPlaces)
}

func TestProcessFailsOverAndAttributesProvider(t *testing.T) {
	primary := &scriptedProvider{name: "groq", err: errors.New("rate limited")}
	secondary := &scriptedProvider{name: "openai", replies: []string{`{"reply":"plan B","confidence":0.9}`}}
	svc, _ := newChatService(primary, secondary)

	result, err := svc.Process(context.Background(), &model.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "openai", result.ModuleUsed, "the answering provider is attributed")
	assert.Equal(t, 1, primary.calls)
}

func TestProcessModuleUsedPrefersParsedCapability(t *testing.T) {
	p := &scriptedProvider{name: "groq", replies: []string{`{"reply":"day plan","module_used":"itinerary","confidence":0.9}`}}
	svc, _ := newChatService(p)

	result, err := svc.Process(context.Background(), &model.ChatRequest{Message: "plan 3 days in Rome"})
	require.NoError(t, err)
	assert.Equal(t, "itinerary", result.ModuleUsed)
}

func TestProcessExhaustionLeavesHistoryUntouched(t *testing.T) {
	p := &scriptedProvider{name: "groq", err: errors.New("down")}
	svc, store := newChatService(p)

	_, err := svc.Process(context.Background(), &model.ChatRequest{Message: "hello", SessionID: "sid"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamUnavailable, apperr.KindOf(err))

	snap, err := store.Snapshot("sid")
	require.NoError(t, err)
	assert.Empty(t, snap.History, "no partial turn may be appended on failure")
}

func TestProcessUnparseableReplyDegrades(t *testing.T) {
	p := &scriptedProvider{name: "groq", replies: []string{"Just plain prose about Vienna."}}
	svc, _ := newChatService(p)

	result, err := svc.Process(context.Background(), &model.ChatRequest{Message: "tell me about vienna"})
	require.NoError(t, err, "unparseable structure must never fail the request")
	assert.Equal(t, "Just plain prose about Vienna.", result.Reply)
	assert.Equal(t, model.ResultTypeText, result.Type)
	assert.Equal(t, model.ValidationNeedsReview, result.ValidationStatus)
	assert.Equal(t, "groq", result.ModuleUsed)
}
