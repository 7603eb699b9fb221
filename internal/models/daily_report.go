package models

import (
	"time"
)

// DailyReport is one per-user-per-day aggregate, upserted by the summary
// generator and flipped to sent by the dispatcher.
type DailyReport struct {
	ID                     string    `gorm:"primaryKey;size:36" json:"id"`
	UserID                 string    `gorm:"not null;uniqueIndex:idx_reports_user_date;size:36" json:"user_id"`
	Date                   time.Time `gorm:"not null;uniqueIndex:idx_reports_user_date" json:"date"`
	TotalProductiveHours   float64   `gorm:"not null;default:0" json:"total_productive_hours"`
	TotalUnproductiveHours float64   `gorm:"not null;default:0" json:"total_unproductive_hours"`
	TotalActiveHours       float64   `gorm:"not null;default:0" json:"total_active_hours"`
	ProductivityPercentage float64   `gorm:"not null;default:0" json:"productivity_percentage"`
	ReportSent             bool      `gorm:"not null;default:false;index" json:"report_sent"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MemberReport is a DailyReport row joined with the member's display metadata,
// as consumed by the report dispatcher.
type MemberReport struct {
	ReportID               string  `json:"report_id"`
	UserID                 string  `json:"user_id"`
	Name                   string  `json:"name"`
	Email                  string  `json:"email"`
	TotalProductiveHours   float64 `json:"total_productive_hours"`
	TotalUnproductiveHours float64 `json:"total_unproductive_hours"`
	TotalActiveHours       float64 `json:"total_active_hours"`
	ProductivityPercentage float64 `json:"productivity_percentage"`
}

// TeamReport is the aggregate handed to the mailer: one row per member plus
// team-wide totals.
type TeamReport struct {
	Date                time.Time      `json:"date"`
	Members             []MemberReport `json:"members"`
	TotalProductive     float64        `json:"total_productive_hours"`
	TotalUnproductive   float64        `json:"total_unproductive_hours"`
	TotalActive         float64        `json:"total_active_hours"`
	AverageProductivity float64        `json:"average_productivity"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// Day normalizes t to midnight UTC, the canonical report date key.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
