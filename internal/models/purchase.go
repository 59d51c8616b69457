package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CoursePurchase: одна запись на (user_id, course_id).
type CoursePurchase struct {
	ID                    int64           `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	CourseID              int64           `json:"course_id"`
	StripePaymentIntentID string          `json:"stripe_payment_intent_id"`
	StripeSessionID       string          `json:"stripe_session_id,omitempty"`
	AmountPaid            decimal.Decimal `json:"amount_paid"`
	Currency              string          `json:"currency"`
	CreatedAt             time.Time       `json:"created_at"`
}

type CourseEnrollment struct {
	ID              int64      `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	CourseID        int64      `json:"course_id"`
	CourseTitle     string     `json:"course_title,omitempty"`
	ProgressPercent float64    `json:"progress_percent"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
	LastAccessedAt  *time.Time `json:"last_accessed_at,omitempty"`
}

// LessonWatchTime: сколько секунд урока просмотрено (обновляется плеером).
type LessonWatchTime struct {
	UserID          uuid.UUID `json:"user_id"`
	CourseID        int64     `json:"course_id"`
	LessonID        int64     `json:"lesson_id"`
	SecondsWatched  int       `json:"seconds_watched"`
	DurationSeconds int       `json:"duration_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}
