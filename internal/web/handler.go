package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"workpulse/internal/aggregator"
	"workpulse/internal/config"
	"workpulse/internal/database"
	"workpulse/internal/dispatcher"
	"workpulse/internal/models"
	"workpulse/internal/session"
	"workpulse/internal/summary"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Handler struct {
	config     *config.Config
	repo       *database.Repository
	sessions   *session.Manager
	summarizer *aggregator.Summarizer
	generator  *summary.Generator
	dispatcher *dispatcher.Dispatcher
	logger     *zap.Logger
}

func NewHandler(
	cfg *config.Config,
	repo *database.Repository,
	sessions *session.Manager,
	summarizer *aggregator.Summarizer,
	generator *summary.Generator,
	dispatcher *dispatcher.Dispatcher,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		config:     cfg,
		repo:       repo,
		sessions:   sessions,
		summarizer: summarizer,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions/start", h.handleSessionStart)
	mux.HandleFunc("/api/sessions/pause", h.handleSessionPause)
	mux.HandleFunc("/api/sessions/resume", h.handleSessionResume)
	mux.HandleFunc("/api/sessions/break", h.handleSessionBreak)
	mux.HandleFunc("/api/sessions/stop", h.handleSessionStop)
	mux.HandleFunc("/api/sessions/classify", h.handleSessionClassify)
	mux.HandleFunc("/api/sessions/active", h.handleActiveSession)

	mux.HandleFunc("/api/events", h.handleEvents)
	mux.HandleFunc("/api/summary", h.handleSummary)

	mux.HandleFunc("/api/reports", h.handleReports)
	mux.HandleFunc("/api/reports/generate", h.handleReportsGenerate)
	mux.HandleFunc("/api/reports/send", h.handleReportsSend)

	mux.HandleFunc("/api/users", h.handleUsers)

	mux.HandleFunc("/health", h.handleHealth)
}

// userID pulls the caller identity from the X-User-ID header. Authentication
// itself lives outside this service.
func (h *Handler) userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// tracker resolves the caller's tracker and reconciles it with the store
// before any transition runs.
func (h *Handler) tracker(w http.ResponseWriter, r *http.Request) (*session.Tracker, bool) {
	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "X-User-ID header required", http.StatusBadRequest)
		return nil, false
	}

	tracker := h.sessions.Tracker(userID)
	if _, err := tracker.Attach(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Failed to read session state: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return tracker, true
}

func (h *Handler) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	workSession, err := tracker.Start(r.Context())
	if err != nil {
		h.sessionError(w, err)
		return
	}
	respondJSON(w, workSession)
}

func (h *Handler) handleSessionPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	if err := tracker.Pause(r.Context()); err != nil {
		h.sessionError(w, err)
		return
	}
	respondJSON(w, map[string]string{"state": string(tracker.State())})
}

func (h *Handler) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "X-User-ID header required", http.StatusBadRequest)
		return
	}

	// No Attach here: resume is only meaningful for the tracker that holds
	// the pause-start instant.
	tracker := h.sessions.Tracker(userID)
	if err := tracker.Resume(r.Context()); err != nil {
		h.sessionError(w, err)
		return
	}
	respondJSON(w, map[string]string{"state": string(tracker.State())})
}

func (h *Handler) handleSessionBreak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes < 1 {
		http.Error(w, "minutes must be a positive integer", http.StatusBadRequest)
		return
	}
	if minutes > h.config.Tracker.MaxBreakMinutes {
		http.Error(w, fmt.Sprintf("break cannot exceed %d minutes", h.config.Tracker.MaxBreakMinutes), http.StatusBadRequest)
		return
	}

	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "X-User-ID header required", http.StatusBadRequest)
		return
	}

	tracker := h.sessions.Tracker(userID)
	if tracker.State() == session.StateStopped {
		if _, err := tracker.Attach(r.Context()); err != nil {
			http.Error(w, fmt.Sprintf("Failed to read session state: %v", err), http.StatusInternalServerError)
			return
		}
	}
	if err := tracker.TakeBreak(r.Context(), minutes); err != nil {
		h.sessionError(w, err)
		return
	}
	respondJSON(w, map[string]interface{}{
		"state":   string(tracker.State()),
		"minutes": minutes,
	})
}

func (h *Handler) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "X-User-ID header required", http.StatusBadRequest)
		return
	}

	tracker := h.sessions.Tracker(userID)
	if tracker.State() == session.StateStopped {
		// A fresh tracker may still be stopped locally while the store has an
		// open session from another client or a previous process.
		if _, err := tracker.Attach(r.Context()); err != nil {
			http.Error(w, fmt.Sprintf("Failed to read session state: %v", err), http.StatusInternalServerError)
			return
		}
	}

	if err := tracker.Stop(r.Context()); err != nil {
		h.sessionError(w, err)
		return
	}
	respondJSON(w, map[string]string{"state": string(tracker.State())})
}

func (h *Handler) handleSessionClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "X-User-ID header required", http.StatusBadRequest)
		return
	}

	var classification session.Classification
	switch r.URL.Query().Get("type") {
	case "active", "productive":
		classification = session.ClassifyActive
	case "idle", "unproductive":
		classification = session.ClassifyIdle
	default:
		http.Error(w, "type must be active or idle", http.StatusBadRequest)
		return
	}

	h.sessions.Tracker(userID).SetClassification(classification)
	respondJSON(w, map[string]string{"classification": string(classification)})
}

func (h *Handler) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	workSession := tracker.Session()
	if workSession == nil {
		http.Error(w, "No active session", http.StatusNotFound)
		return
	}
	respondJSON(w, map[string]interface{}{
		"session":         workSession,
		"state":           string(tracker.State()),
		"elapsed_seconds": int64(tracker.Elapsed().Seconds()),
	})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listEvents(w, r)
	case http.MethodPost:
		h.createEvent(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.queryEvents(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if events == nil {
		events = []*models.ActivityEvent{}
	}
	respondJSON(w, events)
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var event models.ActivityEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, fmt.Sprintf("Invalid event payload: %v", err), http.StatusBadRequest)
		return
	}

	if event.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	if !event.ActivityType.Valid() {
		http.Error(w, fmt.Sprintf("unknown activity type: %s", event.ActivityType), http.StatusBadRequest)
		return
	}
	if event.DurationSeconds < 0 {
		http.Error(w, "duration_seconds cannot be negative", http.StatusBadRequest)
		return
	}
	if event.StartTime.IsZero() {
		event.StartTime = time.Now()
	}

	if err := h.repo.CreateEvent(r.Context(), &event); err != nil {
		http.Error(w, fmt.Sprintf("Failed to store event: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, &event)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events, err := h.queryEvents(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	activitySummary, err := h.summarizer.Summarize(r.Context(), events)
	if err != nil {
		if errors.Is(err, aggregator.ErrInvalidDuration) || errors.Is(err, aggregator.ErrUnknownActivityType) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to summarize: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, activitySummary)
}

// queryEvents reads events for either a session_id filter or a
// user-scoped start/end date range, both inclusive.
func (h *Handler) queryEvents(r *http.Request) ([]*models.ActivityEvent, error) {
	query := r.URL.Query()

	if sessionID := query.Get("session_id"); sessionID != "" {
		return h.repo.EventsBySession(r.Context(), sessionID)
	}

	userID := h.userID(r)
	if userID == "" {
		return nil, fmt.Errorf("session_id or X-User-ID with start/end required")
	}

	from, err := parseDate(query.Get("start"))
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %v", err)
	}
	to, err := parseDate(query.Get("end"))
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %v", err)
	}
	if from.IsZero() {
		from = models.Day(time.Now())
	}
	if to.IsZero() {
		to = from
	}
	return h.repo.EventsByDateRange(r.Context(), userID, from, to.Add(24*time.Hour-time.Nanosecond))
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid date: %v", err), http.StatusBadRequest)
		return
	}
	if day.IsZero() {
		day = time.Now()
	}

	team, err := h.dispatcher.TeamReportFor(r.Context(), day)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch reports: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, team)
}

func (h *Handler) handleReportsGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid date: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.generator.Generate(r.Context(), day)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate reports: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, result)
}

func (h *Handler) handleReportsSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.dispatcher.SendDailyReports(r.Context())
	if err != nil {
		if errors.Is(err, dispatcher.ErrDeliveryFailed) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to send reports: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, result)
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := h.repo.ListUsers(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to fetch users: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, users)

	case http.MethodPost:
		var user models.User
		if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
			http.Error(w, fmt.Sprintf("Invalid user payload: %v", err), http.StatusBadRequest)
			return
		}
		if user.FullName == "" || user.Email == "" {
			http.Error(w, "full_name and email are required", http.StatusBadRequest)
			return
		}
		if user.Role == "" {
			user.Role = "member"
		}
		if err := h.repo.CreateUser(r.Context(), &user); err != nil {
			http.Error(w, fmt.Sprintf("Failed to store user: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, &user)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// sessionError maps state-machine and store errors to HTTP statuses.
func (h *Handler) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrSessionAlreadyActive),
		errors.Is(err, database.ErrNoActiveSession),
		errors.Is(err, session.ErrNotPaused):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("Session operation failed: %v", err), http.StatusInternalServerError)
	}
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
