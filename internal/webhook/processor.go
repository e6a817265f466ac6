package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/internal/apperr"
	"github.com/wanderai/travel-gateway/internal/events"
	"github.com/wanderai/travel-gateway/internal/kb"
	"github.com/wanderai/travel-gateway/internal/model"
	"github.com/wanderai/travel-gateway/pkg/logger"
	"github.com/wanderai/travel-gateway/pkg/metrics"
)

// Processor validates webhook payloads and applies them to the knowledge
// base. A payload moves through authentication, validation, and application
// in that order; any failure short-circuits with no side effects.
type Processor struct {
	store     kb.KnowledgeBase
	publisher events.Publisher
	logger    *logger.Logger
}

// NewProcessor creates a webhook processor over the given knowledge base.
// Applied mutations are announced through the publisher.
func NewProcessor(store kb.KnowledgeBase, pub events.Publisher, log *logger.Logger) *Processor {
	return &Processor{store: store, publisher: pub, logger: log}
}

// Handle applies one webhook mutation. signatureValid is the authenticator's
// verdict on the raw body; the processor never touches the knowledge base for
// an unauthenticated payload.
func (p *Processor) Handle(ctx context.Context, payload *model.WebhookPayload, signatureValid bool) (*model.WebhookResponse, error) {
	if !signatureValid {
		// Log a digest of the rejected payload, never the secret or full body.
		digest := sha256.Sum256([]byte(fmt.Sprintf("%v", payload)))
		p.logger.Warn("webhook signature rejected",
			zap.String("payload_sha256", hex.EncodeToString(digest[:8])),
		)
		metrics.RecordWebhookMutation(string(payload.Action), string(payload.Type), "auth_failure")
		return nil, apperr.New(apperr.KindAuthFailure, "invalid webhook signature")
	}

	if err := validate(payload); err != nil {
		metrics.RecordWebhookMutation(string(payload.Action), string(payload.Type), "invalid")
		return nil, err
	}

	key, err := naturalKey(payload)
	if err != nil {
		metrics.RecordWebhookMutation(string(payload.Action), string(payload.Type), "invalid")
		return nil, err
	}

	if err := p.apply(ctx, payload, key); err != nil {
		metrics.RecordWebhookMutation(string(payload.Action), string(payload.Type), "rejected")
		return nil, err
	}

	metrics.RecordWebhookMutation(string(payload.Action), string(payload.Type), "applied")
	p.publisher.PublishMutation(ctx, &events.MutationEvent{
		Action:    string(payload.Action),
		Type:      string(payload.Type),
		Key:       key,
		CreatedAt: time.Now().UTC(),
	})
	p.logger.Info("webhook mutation applied",
		zap.String("action", string(payload.Action)),
		zap.String("type", string(payload.Type)),
		zap.String("key", key),
	)

	return &model.WebhookResponse{
		Status:  "ok",
		Message: fmt.Sprintf("%s %s %q applied", payload.Action, payload.Type, key),
	}, nil
}

func (p *Processor) apply(ctx context.Context, payload *model.WebhookPayload, key string) error {
	resource := string(payload.Type)

	switch payload.Action {
	case model.ActionAdd:
		if err := p.store.Add(ctx, resource, key, payload.Data); err != nil {
			return classifyStoreError(err, "add failed")
		}
	case model.ActionUpdate:
		err := p.store.Update(ctx, resource, key, payload.Data)
		if errors.Is(err, kb.ErrNotFound) {
			// A concurrent delete is a legitimate outcome, surfaced as a
			// rejection the sender can correct and resend.
			return apperr.Newf(apperr.KindConflict, "%s %q does not exist", resource, key)
		}
		if err != nil {
			return classifyStoreError(err, "update failed")
		}
	case model.ActionDelete:
		// Idempotent: deleting an already-absent resource succeeds.
		if err := p.store.Delete(ctx, resource, key); err != nil {
			return classifyStoreError(err, "delete failed")
		}
	}

	return nil
}

func validate(payload *model.WebhookPayload) error {
	switch payload.Action {
	case model.ActionAdd, model.ActionUpdate, model.ActionDelete:
	default:
		return apperr.Newf(apperr.KindInvalidInput, "unknown action %q", payload.Action)
	}

	switch payload.Type {
	case model.ResourcePlace, model.ResourceTip, model.ResourceCategory:
	default:
		return apperr.Newf(apperr.KindInvalidInput, "unknown resource type %q", payload.Type)
	}

	if payload.Data == nil {
		return apperr.New(apperr.KindInvalidInput, "data is required")
	}

	switch payload.Type {
	case model.ResourcePlace, model.ResourceCategory:
		if stringField(payload.Data, "name") == "" && stringField(payload.Data, "id") == "" {
			return apperr.Newf(apperr.KindInvalidInput, "%s data requires a name", payload.Type)
		}
	case model.ResourceTip:
		if stringField(payload.Data, "text") == "" && stringField(payload.Data, "id") == "" {
			return apperr.New(apperr.KindInvalidInput, "tip data requires text")
		}
	}

	return nil
}

// naturalKey derives the idempotency key for a mutation. Places and
// categories key on their normalized name, tips on an explicit id or a digest
// of their text, so redelivering the same logical payload hits the same key.
func naturalKey(payload *model.WebhookPayload) (string, error) {
	if id := stringField(payload.Data, "id"); id != "" {
		return id, nil
	}

	switch payload.Type {
	case model.ResourcePlace, model.ResourceCategory:
		if name := stringField(payload.Data, "name"); name != "" {
			return normalizeKey(name), nil
		}
	case model.ResourceTip:
		if text := stringField(payload.Data, "text"); text != "" {
			digest := sha256.Sum256([]byte(text))
			return hex.EncodeToString(digest[:8]), nil
		}
	}

	return "", apperr.Newf(apperr.KindInvalidInput, "cannot derive key for %s", payload.Type)
}

func normalizeKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func stringField(data map[string]any, field string) string {
	if v, ok := data[field].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func classifyStoreError(err error, msg string) error {
	if errors.Is(err, kb.ErrUnavailable) {
		return apperr.Wrap(apperr.KindUnavailable, "knowledge base unavailable", err)
	}
	return apperr.Wrap(apperr.KindInternal, msg, err)
}
