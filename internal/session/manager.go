package session

import (
	"sync"
	"time"

	"workpulse/internal/database"

	"go.uber.org/zap"
)

// Manager hands out one Tracker per user. It is the single authoritative
// accessor for session state; surfaces never keep their own copy.
type Manager struct {
	repo   *database.Repository
	logger *zap.Logger
	tick   time.Duration

	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewManager(repo *database.Repository, logger *zap.Logger, tickInterval time.Duration) *Manager {
	return &Manager{
		repo:     repo,
		logger:   logger,
		tick:     tickInterval,
		trackers: make(map[string]*Tracker),
	}
}

// Tracker returns the user's tracker, creating a stopped one on first use.
// Callers attach before assuming state.
func (m *Manager) Tracker(userID string) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	tracker, ok := m.trackers[userID]
	if !ok {
		tracker = NewTracker(userID, m.repo, m.logger, m.tick)
		m.trackers[userID] = tracker
	}
	return tracker
}
