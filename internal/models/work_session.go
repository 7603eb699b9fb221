package models

import (
	"time"
)

// WorkSession is one continuous tracked work period for one user.
// At most one session per user has IsActive set at a time.
type WorkSession struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	UserID             string     `gorm:"not null;index;size:36" json:"user_id"`
	StartTime          time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	IsActive           bool       `gorm:"not null;default:false;index" json:"is_active"`
	TotalActiveMinutes int64      `gorm:"not null;default:0" json:"total_active_minutes"`
	TotalIdleMinutes   int64      `gorm:"not null;default:0" json:"total_idle_minutes"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// User is a tracked team member. Role "admin" receives the daily report mail.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	FullName  string    `gorm:"not null" json:"full_name"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	Role      string    `gorm:"not null;default:member" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const RoleAdmin = "admin"
