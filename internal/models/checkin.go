package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckIn is one user's daily progress record on one goal. One row per
// (goal, user, date) — the unique index backs the write-time gate in the
// check-in handler.
type CheckIn struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID          uuid.UUID      `json:"goalId" gorm:"type:uuid;not null;uniqueIndex:idx_checkin_goal_user_date"`
	UserID          uuid.UUID      `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_checkin_goal_user_date"`
	CheckInDate     time.Time      `json:"checkInDate" gorm:"not null;uniqueIndex:idx_checkin_goal_user_date"`
	ProgressValue   int            `json:"progressValue"`
	Notes           string         `json:"notes" gorm:"size:1000"`
	Reflection      string         `json:"reflection" gorm:"size:2000"`
	MotivationLevel int            `json:"motivationLevel"` // 1-10
	DifficultyLevel int            `json:"difficultyLevel"` // 1-10
	Completed       bool           `json:"completed" gorm:"default:false"`
	BuddyValidated  bool           `json:"buddyValidated" gorm:"default:false"`
	ValidatedByID   *uuid.UUID     `json:"validatedById" gorm:"type:uuid"`
	ValidatedAt     *time.Time     `json:"validatedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	Goal Goal `json:"goal,omitempty" gorm:"foreignKey:GoalID"`
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (ci *CheckIn) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	if ci.CheckInDate.IsZero() {
		ci.CheckInDate = DateOnly(time.Now())
	}
	return nil
}

func (ci *CheckIn) IsToday() bool {
	return ci.CheckInDate.Equal(DateOnly(time.Now()))
}

// DateOnly truncates t to midnight UTC so calendar-day comparisons are
// exact regardless of the wall-clock time a check-in was written.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type CreateCheckInRequest struct {
	ProgressValue   int    `json:"progressValue"`
	Notes           string `json:"notes"`
	Reflection      string `json:"reflection"`
	MotivationLevel int    `json:"motivationLevel"`
	DifficultyLevel int    `json:"difficultyLevel"`
	Completed       bool   `json:"completed"`
}
