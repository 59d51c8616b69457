package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"fyzioakademie/internal/models"
)

type EnrollmentRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.CourseEnrollment, error)
	WatchTimeByUser(ctx context.Context, userID uuid.UUID) ([]*models.LessonWatchTime, error)
}

type enrollmentRepository struct {
	DB *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepository{DB: db}
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.CourseEnrollment, error) {
	const q = `
		SELECT e.id, e.user_id, e.course_id, c.title, e.progress_percent, e.is_completed,
		       e.completed_at, e.enrolled_at, e.last_accessed_at
		FROM course_enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("enrollments list: %w", err)
	}
	defer rows.Close()

	var out []*models.CourseEnrollment
	for rows.Next() {
		e := &models.CourseEnrollment{}
		var completedAt, lastAccessed sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CourseTitle, &e.ProgressPercent, &e.IsCompleted,
			&completedAt, &e.EnrolledAt, &lastAccessed); err != nil {
			return nil, fmt.Errorf("enrollments scan: %w", err)
		}
		if completedAt.Valid {
			e.CompletedAt = &completedAt.Time
		}
		if lastAccessed.Valid {
			e.LastAccessedAt = &lastAccessed.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *enrollmentRepository) WatchTimeByUser(ctx context.Context, userID uuid.UUID) ([]*models.LessonWatchTime, error) {
	const q = `
		SELECT user_id, course_id, lesson_id, seconds_watched, duration_seconds, updated_at
		FROM lesson_watch_time
		WHERE user_id = $1
	`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("watch time list: %w", err)
	}
	defer rows.Close()

	var out []*models.LessonWatchTime
	for rows.Next() {
		w := &models.LessonWatchTime{}
		if err := rows.Scan(&w.UserID, &w.CourseID, &w.LessonID, &w.SecondsWatched, &w.DurationSeconds, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("watch time scan: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
