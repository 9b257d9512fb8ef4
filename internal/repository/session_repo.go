package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/edusubmit-api/internal/models"
)

// ErrSessionNotFound indicates the session expired or never existed.
var ErrSessionNotFound = errors.New("session not found")

// memorySweepInterval bounds how often Save scans for expired entries.
const memorySweepInterval = time.Minute

// SessionRepository stores page sessions for a limited time.
type SessionRepository interface {
	Get(ctx context.Context, id string) (models.Session, error)
	Save(ctx context.Context, session models.Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

type memorySessionRepository struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemorySessionRepository keeps sessions in process memory. Entries are
// stored serialized so callers never share state through the map.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	if r.now().After(entry.expiresAt) {
		delete(r.entries, id)
		return models.Session{}, ErrSessionNotFound
	}

	return decodeSession(entry.payload)
}

func (r *memorySessionRepository) Save(_ context.Context, session models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.entries[session.ID] = memoryEntry{payload: payload, expiresAt: now.Add(r.ttl)}
	if now.Sub(r.lastSweep) >= memorySweepInterval {
		r.sweep(now)
	}
	return nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

// caller holds mu
func (r *memorySessionRepository) sweep(now time.Time) {
	r.lastSweep = now
	for id, entry := range r.entries {
		if now.After(entry.expiresAt) {
			delete(r.entries, id)
		}
	}
}

func decodeSession(payload []byte) (models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}
