package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/segment"
)

// Manager owns the live sessions and loads persisted ones on first access.
type Manager struct {
	deps *Dependencies

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Dependencies) *Manager {
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{
		deps:     &deps,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new claim. An invalid tripType falls back to direct.
func (m *Manager) Create(ctx context.Context, tripType models.TripType) (*Session, error) {
	id := m.deps.NewID()
	s := newSession(id, segment.NewStore(tripType, m.storeOptions()...), nil, m.deps)

	if err := s.Do(ctx, "create", func() error { return nil }); err != nil {
		s.Close()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	m.deps.Metrics.SetSessions(n)

	logging.Info("claim created", "claim_id", id, "trip_type", tripType)
	return s, nil
}

// Get returns the live session for id, rehydrating it from the state store
// when it is not in memory.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	loaded, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		loaded.Close()
		return s, nil
	}
	m.sessions[id] = loaded
	n := len(m.sessions)
	m.mu.Unlock()
	m.deps.Metrics.SetSessions(n)
	return loaded, nil
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	if m.deps.Store == nil {
		return nil, models.ErrClaimNotFound
	}
	data, found, err := m.deps.Store.Get(ctx, stateKey(id))
	if err != nil {
		return nil, fmt.Errorf("load claim %s: %w", id, err)
	}
	if !found {
		return nil, models.ErrClaimNotFound
	}

	st, err := decodeState(data)
	if err != nil {
		logging.Error("discarding unreadable claim state", "claim_id", id, "error", err)
		return nil, models.ErrClaimNotFound
	}
	if st.Version > stateVersion {
		logging.Warn("claim state written by a newer version", "claim_id", id, "version", st.Version)
	}

	store, answers := rehydrate(st, m.storeOptions()...)
	logging.Debug("claim rehydrated", "claim_id", id, "trip_type", store.SelectedType())
	return newSession(id, store, answers, m.deps), nil
}

func (m *Manager) storeOptions() []segment.Option {
	return []segment.Option{
		segment.WithIDGenerator(m.deps.NewID),
		segment.WithLocation(m.deps.Location),
	}
}

// Delete discards the claim from memory and from the state store. A live
// session is stopped first so a command still in flight cannot write the
// claim back.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, live := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if live {
		s.Close()
		m.deps.Metrics.SetSessions(n)
		if err := s.wait(ctx); err != nil {
			return fmt.Errorf("delete claim %s: %w", id, err)
		}
	}
	if m.deps.Store == nil {
		if !live {
			return models.ErrClaimNotFound
		}
		return nil
	}

	if !live {
		if _, found, err := m.deps.Store.Get(ctx, stateKey(id)); err != nil {
			return fmt.Errorf("delete claim %s: %w", id, err)
		} else if !found {
			return models.ErrClaimNotFound
		}
	}
	if err := m.deps.Store.Remove(ctx, stateKey(id)); err != nil {
		return fmt.Errorf("delete claim %s: %w", id, err)
	}
	logging.Info("claim deleted", "claim_id", id)
	return nil
}

// Close stops every live session. Their state is already persisted.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
	m.deps.Metrics.SetSessions(0)
}
