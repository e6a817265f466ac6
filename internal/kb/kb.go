// Package kb defines the knowledge-base collaborator mutated by webhooks.
package kb

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Update when the target resource does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrUnavailable is returned when the collaborator cannot be reached.
var ErrUnavailable = errors.New("knowledge base unavailable")

// KnowledgeBase is the external store of travel data. Implementations must
// serialize concurrent mutations of the same resource themselves; callers get
// atomic add/update/delete as seen by subsequent reads.
type KnowledgeBase interface {
	// Add creates a resource under its natural key. Re-adding an existing key
	// replaces the stored data, so repeated delivery does not duplicate.
	Add(ctx context.Context, resource, key string, data map[string]any) error

	// Update merges data into an existing resource. Fails with ErrNotFound if
	// the target does not exist.
	Update(ctx context.Context, resource, key string, data map[string]any) error

	// Delete removes a resource by key. Deleting an absent resource is not an
	// error.
	Delete(ctx context.Context, resource, key string) error
}
