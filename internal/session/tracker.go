package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"workpulse/internal/database"
	"workpulse/internal/models"

	"go.uber.org/zap"
)

// State is the tracker's lifecycle position.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Classification selects which bucket the minute tick attributes to.
type Classification string

const (
	ClassifyActive Classification = "active"
	ClassifyIdle   Classification = "idle"
)

var ErrNotPaused = errors.New("session is not paused")

const pauseLabel = "Pause"
const breakLabel = "Break"

// Tracker owns the lifecycle of one user's work session: start, pause,
// resume, break, stop. Transitions are serialized per tracker; the
// one-active-session invariant itself is enforced by the store, not here, so
// concurrent clients for the same user stay safe.
type Tracker struct {
	userID string
	repo   *database.Repository
	logger *zap.Logger
	tick   time.Duration
	now    func() time.Time

	mu             sync.Mutex
	state          State
	session        *models.WorkSession
	pauseStart     time.Time
	classification Classification
	cancelTick     context.CancelFunc
}

// NewTracker creates a stopped tracker for one user. tickInterval is the
// minute-tick period; pass time.Minute outside tests.
func NewTracker(userID string, repo *database.Repository, logger *zap.Logger, tickInterval time.Duration) *Tracker {
	return &Tracker{
		userID:         userID,
		repo:           repo,
		logger:         logger,
		tick:           tickInterval,
		now:            time.Now,
		state:          StateStopped,
		classification: ClassifyActive,
	}
}

// Attach reconciles local state with the store. Every entry point that
// assumes session state calls this first; in-memory flags are never trusted
// across reconnects or failed mid-flight starts.
func (t *Tracker) Attach(ctx context.Context) (*models.WorkSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, err := t.repo.ActiveSession(ctx, t.userID)
	if err != nil {
		return nil, err
	}

	if session == nil {
		t.stopTickLocked()
		t.state = StateStopped
		t.session = nil
		return nil, nil
	}

	t.session = session
	if t.state == StateStopped {
		t.state = StateRunning
		t.startTickLocked(session.ID)
		t.logger.Info("attached to active session",
			zap.String("user_id", t.userID),
			zap.String("session_id", session.ID),
		)
	}
	return session, nil
}

// Start opens a new work session. Valid only from Stopped; the store's
// conditional insert rejects a second concurrent session for the user.
func (t *Tracker) Start(ctx context.Context) (*models.WorkSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateStopped {
		return nil, database.ErrSessionAlreadyActive
	}

	session, err := t.repo.CreateSession(ctx, t.userID, t.now())
	if err != nil {
		return nil, err
	}

	t.session = session
	t.state = StateRunning
	t.startTickLocked(session.ID)
	t.logger.Info("work session started",
		zap.String("user_id", t.userID),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

// Pause records the pause-start instant. The PAUSE activity event is emitted
// only when the pause closes, so its duration is known at insert time.
func (t *Tracker) Pause(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return database.ErrNoActiveSession
	}

	t.pauseStart = t.now()
	t.state = StatePaused
	t.stopTickLocked()
	t.logger.Info("session paused", zap.String("session_id", t.session.ID))
	return nil
}

// Resume closes the open pause, emitting one PAUSE event for it, and returns
// to Running.
func (t *Tracker) Resume(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateStopped {
		return database.ErrNoActiveSession
	}
	if t.state != StatePaused {
		return ErrNotPaused
	}

	if err := t.closePauseLocked(ctx); err != nil {
		return err
	}

	t.state = StateRunning
	t.startTickLocked(t.session.ID)
	t.logger.Info("session resumed", zap.String("session_id", t.session.ID))
	return nil
}

// TakeBreak emits one PAUSE event spanning [now, now+minutes] immediately,
// with the duration pre-computed rather than waited out. Valid from Running
// or Paused; the state is unchanged.
func (t *Tracker) TakeBreak(ctx context.Context, minutes int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateStopped {
		return database.ErrNoActiveSession
	}

	start := t.now()
	end := start.Add(time.Duration(minutes) * time.Minute)
	event := &models.ActivityEvent{
		SessionID:       t.session.ID,
		StartTime:       start,
		EndTime:         &end,
		ActivityType:    models.ActivityPause,
		WindowTitle:     breakLabel,
		DurationSeconds: int64(minutes) * 60,
	}
	if err := t.repo.CreateEvent(ctx, event); err != nil {
		return err
	}

	t.logger.Info("break recorded",
		zap.String("session_id", t.session.ID),
		zap.Int("minutes", minutes),
	)
	return nil
}

// Stop ends the session from any non-Stopped state. An open pause is closed
// first, exactly as Resume would close it. The close is a compare-and-set;
// when another task already closed the session the tracker adopts Stopped
// and surfaces ErrNoActiveSession.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateStopped {
		return database.ErrNoActiveSession
	}

	if t.state == StatePaused {
		if err := t.closePauseLocked(ctx); err != nil {
			return err
		}
	}

	t.stopTickLocked()
	err := t.repo.CloseSession(ctx, t.session.ID, t.now())
	if err != nil && !errors.Is(err, database.ErrNoActiveSession) {
		return err
	}

	t.logger.Info("work session stopped", zap.String("session_id", t.session.ID))
	t.state = StateStopped
	t.session = nil
	return err
}

// SetClassification selects the bucket upcoming minute ticks attribute to.
func (t *Tracker) SetClassification(c Classification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classification = c
}

// State returns the tracker's current lifecycle position.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Session returns the tracked session, or nil when stopped.
func (t *Tracker) Session() *models.WorkSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Elapsed is the presentational wall-clock time since the session started.
// It is never authoritative; durations on stored events and the session
// minute counters are.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return 0
	}
	return t.now().Sub(t.session.StartTime)
}

// closePauseLocked emits the PAUSE event for the currently open pause.
func (t *Tracker) closePauseLocked(ctx context.Context) error {
	end := t.now()
	duration := int64(end.Sub(t.pauseStart).Seconds())
	event := &models.ActivityEvent{
		SessionID:       t.session.ID,
		StartTime:       t.pauseStart,
		EndTime:         &end,
		ActivityType:    models.ActivityPause,
		WindowTitle:     pauseLabel,
		DurationSeconds: duration,
	}
	return t.repo.CreateEvent(ctx, event)
}

// startTickLocked launches the minute tick for a session. The tick is a
// first-class cancellable task: started here, cancelled by stopTickLocked on
// pause and stop. A missed tick is lost time, not backfilled.
func (t *Tracker) startTickLocked(sessionID string) {
	t.stopTickLocked()

	ctx, cancel := context.WithCancel(context.Background())
	t.cancelTick = cancel

	go func() {
		ticker := time.NewTicker(t.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.recordMinute(ctx, sessionID)
			}
		}
	}()
}

func (t *Tracker) stopTickLocked() {
	if t.cancelTick != nil {
		t.cancelTick()
		t.cancelTick = nil
	}
}

func (t *Tracker) recordMinute(ctx context.Context, sessionID string) {
	t.mu.Lock()
	classification := t.classification
	t.mu.Unlock()

	var activeDelta, idleDelta int64
	if classification == ClassifyIdle {
		idleDelta = 1
	} else {
		activeDelta = 1
	}

	if err := t.repo.AddSessionMinutes(ctx, sessionID, activeDelta, idleDelta); err != nil {
		t.logger.Warn("minute tick not persisted",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}
