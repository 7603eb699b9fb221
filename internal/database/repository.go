package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"workpulse/internal/models"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store-level sentinel errors. The one-active-session-per-user invariant is
// enforced here by a conditional insert, not by application-level locking, so
// independent clients for the same user cannot open two sessions at once.
var (
	ErrSessionAlreadyActive = errors.New("an active session already exists for this user")
	ErrNoActiveSession      = errors.New("no active session")
)

// Repository handles all database operations for sessions, events and reports
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// --- activity events ---

// CreateEvent inserts a new activity event into the store
func (r *Repository) CreateEvent(ctx context.Context, event *models.ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.AppName = strings.ToLower(event.AppName)
	event.URLDomain = strings.ToLower(event.URLDomain)

	result := r.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to insert activity event")
	}
	return nil
}

// CloseEvent sets the end time and authoritative duration of an open event
func (r *Repository) CloseEvent(ctx context.Context, id string, end time.Time, durationSeconds int64) error {
	result := r.db.WithContext(ctx).Model(&models.ActivityEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"end_time":         end,
			"duration_seconds": durationSeconds,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to close activity event")
	}
	return nil
}

// EventsBySession retrieves all events for one session, newest first
func (r *Repository) EventsBySession(ctx context.Context, sessionID string) ([]*models.ActivityEvent, error) {
	var events []*models.ActivityEvent
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("start_time DESC").
		Find(&events)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query session events")
	}
	return events, nil
}

// EventsByDateRange retrieves one user's events with start_time in [from, to],
// inclusive on both ends, newest first
func (r *Repository) EventsByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.ActivityEvent, error) {
	var events []*models.ActivityEvent
	sessions := r.db.Model(&models.WorkSession{}).
		Select("id").
		Where("user_id = ?", userID)

	result := r.db.WithContext(ctx).
		Where("session_id IN (?)", sessions).
		Where("start_time >= ? AND start_time <= ?", from, to).
		Order("start_time DESC").
		Find(&events)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query events by date range")
	}
	return events, nil
}

// --- work sessions ---

// CreateSession opens a new work session for a user. The insert is
// conditional: it fails with ErrSessionAlreadyActive if the user already has
// an open session.
func (r *Repository) CreateSession(ctx context.Context, userID string, start time.Time) (*models.WorkSession, error) {
	session := &models.WorkSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: start,
		IsActive:  true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.WorkSession{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Count(&count).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to check for active session")
		}
		if count > 0 {
			return ErrSessionAlreadyActive
		}
		if err := tx.Create(session).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to insert work session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ActiveSession retrieves the most recent active session for a user, or nil
// if the user is not tracking. Callers must use this read-back instead of
// trusting in-memory state.
func (r *Repository) ActiveSession(ctx context.Context, userID string) (*models.WorkSession, error) {
	var session models.WorkSession
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("start_time DESC").
		Limit(1).
		First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(result.Error, "failed to query active session")
	}
	return &session, nil
}

// CloseSession ends a session. The update is a compare-and-set against the
// session id and the active flag so a session another task already closed is
// not resurrected; it returns ErrNoActiveSession when the CAS misses.
func (r *Repository) CloseSession(ctx context.Context, id string, end time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.WorkSession{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"end_time":  end,
			"is_active": false,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to close work session")
	}
	if result.RowsAffected == 0 {
		return ErrNoActiveSession
	}
	return nil
}

// AddSessionMinutes increments the per-session minute counters
func (r *Repository) AddSessionMinutes(ctx context.Context, id string, activeDelta, idleDelta int64) error {
	result := r.db.WithContext(ctx).Model(&models.WorkSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_active_minutes": gorm.Expr("total_active_minutes + ?", activeDelta),
			"total_idle_minutes":   gorm.Expr("total_idle_minutes + ?", idleDelta),
		})
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to update session minutes")
	}
	return nil
}

// UserIDsWithSessionsOn returns every user with at least one session
// overlapping the given day
func (r *Repository) UserIDsWithSessionsOn(ctx context.Context, day time.Time) ([]string, error) {
	day = models.Day(day)
	next := day.Add(24 * time.Hour)

	var userIDs []string
	result := r.db.WithContext(ctx).Model(&models.WorkSession{}).
		Distinct("user_id").
		Where("start_time < ?", next).
		Where("end_time IS NULL OR end_time >= ?", day).
		Pluck("user_id", &userIDs)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query users with sessions")
	}
	return userIDs, nil
}

// --- daily reports ---

// UpsertDailyReport writes one report row keyed by (user_id, date). Re-runs
// overwrite the hour columns; report_sent and created_at are preserved so a
// regenerated report that was already delivered is not re-sent.
func (r *Repository) UpsertDailyReport(ctx context.Context, report *models.DailyReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.Date = models.Day(report.Date)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_productive_hours",
			"total_unproductive_hours",
			"total_active_hours",
			"productivity_percentage",
			"updated_at",
		}),
	}).Create(report)
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to upsert daily report")
	}
	return nil
}

// ReportsForDate retrieves all report rows for one day
func (r *Repository) ReportsForDate(ctx context.Context, day time.Time) ([]*models.DailyReport, error) {
	var reports []*models.DailyReport
	result := r.db.WithContext(ctx).
		Where("date = ?", models.Day(day)).
		Order("user_id ASC").
		Find(&reports)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query daily reports")
	}
	return reports, nil
}

// ReportForUser retrieves one user's report row for one day, or nil
func (r *Repository) ReportForUser(ctx context.Context, userID string, day time.Time) (*models.DailyReport, error) {
	var report models.DailyReport
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, models.Day(day)).
		First(&report)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(result.Error, "failed to query daily report")
	}
	return &report, nil
}

// UnsentReports retrieves unsent report rows for one day joined with each
// member's display name and email
func (r *Repository) UnsentReports(ctx context.Context, day time.Time) ([]models.MemberReport, error) {
	var rows []models.MemberReport
	result := r.db.WithContext(ctx).Model(&models.DailyReport{}).
		Select(`daily_reports.id AS report_id,
			daily_reports.user_id,
			users.full_name AS name,
			users.email,
			daily_reports.total_productive_hours,
			daily_reports.total_unproductive_hours,
			daily_reports.total_active_hours,
			daily_reports.productivity_percentage`).
		Joins("JOIN users ON users.id = daily_reports.user_id").
		Where("daily_reports.date = ? AND daily_reports.report_sent = ?", models.Day(day), false).
		Order("users.full_name ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query unsent reports")
	}
	return rows, nil
}

// ReportsWithUsers retrieves all report rows for one day, sent or not,
// joined with each member's display name and email
func (r *Repository) ReportsWithUsers(ctx context.Context, day time.Time) ([]models.MemberReport, error) {
	var rows []models.MemberReport
	result := r.db.WithContext(ctx).Model(&models.DailyReport{}).
		Select(`daily_reports.id AS report_id,
			daily_reports.user_id,
			users.full_name AS name,
			users.email,
			daily_reports.total_productive_hours,
			daily_reports.total_unproductive_hours,
			daily_reports.total_active_hours,
			daily_reports.productivity_percentage`).
		Joins("JOIN users ON users.id = daily_reports.user_id").
		Where("daily_reports.date = ?", models.Day(day)).
		Order("users.full_name ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query reports for date")
	}
	return rows, nil
}

// MarkReportsSent flips report_sent for exactly the given report rows
func (r *Repository) MarkReportsSent(ctx context.Context, reportIDs []string) error {
	if len(reportIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.DailyReport{}).
		Where("id IN ?", reportIDs).
		Update("report_sent", true)
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to mark reports sent")
	}
	return nil
}

// --- categories ---

// CategoryByID retrieves one productivity category, or nil if unmapped
func (r *Repository) CategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	result := r.db.WithContext(ctx).First(&category, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(result.Error, "failed to query category")
	}
	return &category, nil
}

// ListCategories retrieves all productivity categories
func (r *Repository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	result := r.db.WithContext(ctx).Order("name ASC").Find(&categories)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query categories")
	}
	return categories, nil
}

// CreateCategory inserts a new productivity category
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	result := r.db.WithContext(ctx).Create(category)
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to insert category")
	}
	return nil
}

// --- users ---

// CreateUser inserts a new team member
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "failed to insert user")
	}
	return nil
}

// UserByID retrieves one team member
func (r *Repository) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(result.Error, "failed to query user")
	}
	return &user, nil
}

// ListUsers retrieves all team members
func (r *Repository) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	result := r.db.WithContext(ctx).Order("full_name ASC").Find(&users)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query users")
	}
	return users, nil
}

// AdminEmails retrieves the addresses the daily report mail goes to
func (r *Repository) AdminEmails(ctx context.Context) ([]string, error) {
	var emails []string
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Order("email ASC").
		Pluck("email", &emails)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(result.Error, "failed to query admin emails")
	}
	return emails, nil
}
