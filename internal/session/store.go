// Package session provides the in-memory conversation session store.
package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/internal/apperr"
	"github.com/wanderai/travel-gateway/internal/model"
	"github.com/wanderai/travel-gateway/pkg/logger"
	"github.com/wanderai/travel-gateway/pkg/metrics"
)

const (
	shardCount         = 32
	maxSuggestedPlaces = 50
	titleMaxLen        = 50
)

// session is the store-owned mutable state for one conversation. All access
// goes through the owning shard's lock.
type session struct {
	id              string
	title           string
	history         []model.Turn
	suggestedPlaces []string
	createdAt       time.Time
	updatedAt       time.Time
	lastAccess      time.Time
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// Store maps session ids to conversation state. It is sharded so concurrent
// requests for distinct sessions do not contend on a single lock; operations
// on the same session serialize on the owning shard.
type Store struct {
	shards   [shardCount]*shard
	ttl      time.Duration
	maxTurns int
	logger   *logger.Logger

	stop chan struct{}
	done chan struct{}
}

// NewStore creates a session store. Sessions idle longer than ttl are removed
// by EvictExpired; history is capped at maxTurns entries.
func NewStore(ttl time.Duration, maxTurns int, log *logger.Logger) *Store {
	s := &Store{
		ttl:      ttl,
		maxTurns: maxTurns,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*session)}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// GetOrCreate resolves a session. An empty id generates a fresh identifier;
// an unknown id is adopted and a new session is created under it, so clients
// may generate their own ids and evicted sessions restart cleanly. When the
// session is newly created, seedPlaces initializes its suggested-place set.
func (s *Store) GetOrCreate(id string, seedPlaces []string) (model.SessionView, bool) {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, exists := sh.sessions[id]
	if !exists {
		now := time.Now()
		sess = &session{
			id:         id,
			createdAt:  now,
			updatedAt:  now,
			lastAccess: now,
		}
		for _, p := range seedPlaces {
			if p != "" && !contains(sess.suggestedPlaces, p) {
				sess.suggestedPlaces = append(sess.suggestedPlaces, p)
			}
		}
		sh.sessions[id] = sess
		metrics.SessionsActive.Inc()
	} else {
		sess.lastAccess = time.Now()
	}

	return snapshot(sess), !exists
}

// AppendExchange appends one user turn and the matching assistant turn as a
// single operation, so a session never holds half an exchange. Fails with an
// unknown-session error if the id was evicted in the meantime.
func (s *Store) AppendExchange(id, userText, assistantText string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, exists := sh.sessions[id]
	if !exists {
		return apperr.Newf(apperr.KindUnknownSession, "session %s not found", id)
	}

	now := time.Now()
	sess.history = append(sess.history,
		model.Turn{Role: model.RoleUser, Content: userText, CreatedAt: now},
		model.Turn{Role: model.RoleAssistant, Content: assistantText, CreatedAt: now},
	)

	// Cap history so long conversations do not grow without bound.
	if s.maxTurns > 0 && len(sess.history) > s.maxTurns {
		sess.history = sess.history[len(sess.history)-s.maxTurns:]
	}

	if sess.title == "" {
		sess.title = truncate(userText, titleMaxLen)
	}

	sess.updatedAt = now
	sess.lastAccess = now
	return nil
}

// RecordSuggestedPlace adds a place name to the session's suggested set.
// Set semantics: recording the same name again is a no-op.
func (s *Store) RecordSuggestedPlace(id, placeName string) error {
	if placeName == "" {
		return nil
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, exists := sh.sessions[id]
	if !exists {
		return apperr.Newf(apperr.KindUnknownSession, "session %s not found", id)
	}

	if !contains(sess.suggestedPlaces, placeName) {
		sess.suggestedPlaces = append(sess.suggestedPlaces, placeName)
		if len(sess.suggestedPlaces) > maxSuggestedPlaces {
			sess.suggestedPlaces = sess.suggestedPlaces[len(sess.suggestedPlaces)-maxSuggestedPlaces:]
		}
	}

	sess.lastAccess = time.Now()
	return nil
}

// Snapshot returns a read-only copy of a session.
func (s *Store) Snapshot(id string) (model.SessionView, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, exists := sh.sessions[id]
	if !exists {
		return model.SessionView{}, apperr.Newf(apperr.KindUnknownSession, "session %s not found", id)
	}

	return snapshot(sess), nil
}

// EvictExpired removes sessions idle longer than the store TTL and returns
// how many were removed.
func (s *Store) EvictExpired(now time.Time) int {
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if now.Sub(sess.lastAccess) > s.ttl {
				delete(sh.sessions, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}

	if evicted > 0 {
		metrics.SessionsActive.Sub(float64(evicted))
		metrics.SessionsEvictedTotal.Add(float64(evicted))
	}
	return evicted
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// Start runs the background eviction janitor until Stop or ctx cancellation.
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.EvictExpired(time.Now()); n > 0 {
					s.logger.Debug("evicted idle sessions", zap.Int("count", n))
				}
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the janitor and waits for it to exit.
func (s *Store) Stop() {
	close(s.stop)
	<-s.done
}

func snapshot(sess *session) model.SessionView {
	history := make([]model.Turn, len(sess.history))
	copy(history, sess.history)
	places := make([]string, len(sess.suggestedPlaces))
	copy(places, sess.suggestedPlaces)

	return model.SessionView{
		ID:              sess.id,
		Title:           sess.title,
		History:         history,
		SuggestedPlaces: places,
		CreatedAt:       sess.createdAt,
		UpdatedAt:       sess.updatedAt,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
