package webhook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderai/travel-gateway/internal/apperr"
	"github.com/wanderai/travel-gateway/internal/events"
	"github.com/wanderai/travel-gateway/internal/kb"
	"github.com/wanderai/travel-gateway/internal/model"
	"github.com/wanderai/travel-gateway/pkg/logger"
)

func newProcessor() (*Processor, *kb.MemoryStore) {
	store := kb.NewMemoryStore()
	return NewProcessor(store, events.NoopPublisher{}, logger.NewNop()), store
}

func placePayload(action model.WebhookAction, name string) *model.WebhookPayload {
	return &model.WebhookPayload{
		Action: action,
		Type:   model.ResourcePlace,
		Data:   map[string]any{"name": name},
	}
}

func TestHandleRejectsInvalidSignature(t *testing.T) {
	p, store := newProcessor()

	_, err := p.Handle(context.Background(), placePayload(model.ActionAdd, "Lake Town"), false)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthFailure, apperr.KindOf(err))
	assert.Equal(t, 0, store.Count("place"), "rejected payload must not touch the knowledge base")
}

func TestHandleRejectsUnknownActionAndType(t *testing.T) {
	p, store := newProcessor()

	_, err := p.Handle(context.Background(), &model.WebhookPayload{
		Action: "upsert",
		Type:   model.ResourcePlace,
		Data:   map[string]any{"name": "x"},
	}, true)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = p.Handle(context.Background(), &model.WebhookPayload{
		Action: model.ActionAdd,
		Type:   "restaurant",
		Data:   map[string]any{"name": "x"},
	}, true)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	assert.Equal(t, 0, store.Count("place"))
}

func TestHandleRejectsMissingRequiredFields(t *testing.T) {
	p, _ := newProcessor()

	_, err := p.Handle(context.Background(), &model.WebhookPayload{
		Action: model.ActionAdd,
		Type:   model.ResourcePlace,
		Data:   map[string]any{"country": "Portugal"},
	}, true)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = p.Handle(context.Background(), &model.WebhookPayload{
		Action: model.ActionAdd,
		Type:   model.ResourceTip,
		Data:   map[string]any{},
	}, true)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = p.Handle(context.Background(), &model.WebhookPayload{
		Action: model.ActionAdd,
		Type:   model.ResourcePlace,
	}, true)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestHandleAddIsIdempotentByNaturalKey(t *testing.T) {
	p, store := newProcessor()

	resp, err := p.Handle(context.Background(), placePayload(model.ActionAdd, "Lake Town"), true)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	// Redelivering the same payload succeeds without creating a duplicate.
	resp, err = p.Handle(context.Background(), placePayload(model.ActionAdd, "Lake Town"), true)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, store.Count("place"))

	// Name keys are normalized, so case and spacing differences collapse.
	_, err = p.Handle(context.Background(), placePayload(model.ActionAdd, "  lake   TOWN "), true)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count("place"))
}

func TestHandleUpdateMissingTargetIsRejected(t *testing.T) {
	p, _ := newProcessor()

	_, err := p.Handle(context.Background(), placePayload(model.ActionUpdate, "Ghost Town"), true)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestHandleUpdateMergesExisting(t *testing.T) {
	p, store := newProcessor()

	_, err := p.Handle(context.Background(), &model.WebhookPayload{
		Action: model.ActionAdd,
		Type:   model.ResourcePlace,
		Data:   map[string]any{"name": "Lake Town", "country": "Fiction"},
	}, true)
	require.NoError(t, err)

	_, err = p.Handle(context.Background(), &model.WebhookPayload{
		Action: model.ActionUpdate,
		Type:   model.ResourcePlace,
		Data:   map[string]any{"name": "Lake Town", "population": 1200},
	}, true)
	require.NoError(t, err)

	data, ok := store.Get("place", "lake-town")
	require.True(t, ok)
	assert.Equal(t, "Fiction", data["country"])
	assert.Equal(t, 1200, data["population"])
}

func TestHandleDeleteIsIdempotent(t *testing.T) {
	p, store := newProcessor()

	_, err := p.Handle(context.Background(), placePayload(model.ActionAdd, "Lake Town"), true)
	require.NoError(t, err)

	resp, err := p.Handle(context.Background(), placePayload(model.ActionDelete, "Lake Town"), true)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, store.Count("place"))

	// Deleting an already-absent resource still succeeds.
	resp, err = p.Handle(context.Background(), placePayload(model.ActionDelete, "Lake Town"), true)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleTipKeyedByIDOrTextDigest(t *testing.T) {
	p, store := newProcessor()

	tip := &model.WebhookPayload{
		Action: model.ActionAdd,
		Type:   model.ResourceTip,
		Data:   map[string]any{"text": "Book trains early in Japan."},
	}
	_, err := p.Handle(context.Background(), tip, true)
	require.NoError(t, err)
	_, err = p.Handle(context.Background(), tip, true)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count("tip"), "same text collapses to one tip")

	withID := &model.WebhookPayload{
		Action: model.ActionAdd,
		Type:   model.ResourceTip,
		Data:   map[string]any{"id": "tip-42", "text": "Carry cash in rural areas."},
	}
	_, err = p.Handle(context.Background(), withID, true)
	require.NoError(t, err)

	_, ok := store.Get("tip", "tip-42")
	assert.True(t, ok, "explicit id wins over derived key")
}
