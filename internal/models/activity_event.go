package models

import (
	"time"
)

// ActivityType classifies one recorded activity interval.
type ActivityType string

const (
	ActivityApp     ActivityType = "APP"
	ActivityWebsite ActivityType = "WEBSITE"
	ActivityIdle    ActivityType = "IDLE"
	ActivityPause   ActivityType = "PAUSE"
)

// Valid reports whether t is a member of the closed activity-type set.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityApp, ActivityWebsite, ActivityIdle, ActivityPause:
		return true
	}
	return false
}

// Active reports whether time of this type counts toward active time.
func (t ActivityType) Active() bool {
	return t == ActivityApp || t == ActivityWebsite
}

// Productivity is the classification of a category.
type Productivity string

const (
	Productive   Productivity = "PRODUCTIVE"
	Unproductive Productivity = "UNPRODUCTIVE"
	Neutral      Productivity = "NEUTRAL"
)

// ActivityEvent is one observed interval of user activity. Events are
// append-only; aggregation is read-only over this log.
type ActivityEvent struct {
	ID              string       `gorm:"primaryKey;size:36" json:"id"`
	SessionID       string       `gorm:"not null;index;size:36" json:"session_id"`
	StartTime       time.Time    `gorm:"not null;index" json:"start_time"`
	EndTime         *time.Time   `json:"end_time"`
	ActivityType    ActivityType `gorm:"not null;size:16" json:"activity_type"`
	AppName         string       `gorm:"index" json:"app_name,omitempty"`
	ProcessName     string       `json:"process_name,omitempty"`
	URLDomain       string       `gorm:"index" json:"url_domain,omitempty"`
	URLPath         string       `json:"url_path,omitempty"`
	WindowTitle     string       `json:"window_title,omitempty"`
	CategoryID      *string      `gorm:"size:36" json:"category_id"`
	DurationSeconds int64        `gorm:"not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// Category maps activity events to a productivity classification.
type Category struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	Name         string       `gorm:"not null;uniqueIndex" json:"name"`
	Productivity Productivity `gorm:"not null;size:16;default:NEUTRAL" json:"productivity"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// RankedEntry is one row of a top-N breakdown.
type RankedEntry struct {
	Name            string  `json:"name"`
	DurationSeconds int64   `json:"duration_seconds"`
	Percentage      float64 `json:"percentage"`
}

// ActivitySummary is the derived reduction of a set of activity events.
// Not persisted; computed on demand.
type ActivitySummary struct {
	TotalActiveTime  int64 `json:"total_active_time"`
	TotalIdleTime    int64 `json:"total_idle_time"`
	TotalPauseTime   int64 `json:"total_pause_time"`
	ProductiveTime   int64 `json:"productive_time"`
	UnproductiveTime int64 `json:"unproductive_time"`
	NeutralTime      int64 `json:"neutral_time"`

	TopApps     []RankedEntry `json:"top_apps"`
	TopWebsites []RankedEntry `json:"top_websites"`
}

// GrandTotal is the percentage denominator for the ranked breakdowns.
func (s *ActivitySummary) GrandTotal() int64 {
	return s.TotalActiveTime + s.TotalIdleTime + s.TotalPauseTime
}
