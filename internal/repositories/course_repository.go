package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fyzioakademie/internal/models"
)

type CourseRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	ListPublished(ctx context.Context) ([]*models.Course, error)
}

type courseRepository struct {
	DB *sql.DB
}

func NewCourseRepository(db *sql.DB) CourseRepository {
	return &courseRepository{DB: db}
}

const courseColumns = `id, title, slug, description, price, currency, image_url, is_published, created_at`

func scanCourse(row interface{ Scan(...any) error }) (*models.Course, error) {
	c := &models.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.Price, &c.Currency, &c.ImageURL, &c.IsPublished, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID: nil, nil если курса нет.
func (r *courseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	c, err := scanCourse(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("course get: %w", err)
	}
	return c, nil
}

func (r *courseRepository) ListPublished(ctx context.Context) ([]*models.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses WHERE is_published = TRUE ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("course list: %w", err)
	}
	defer rows.Close()

	var out []*models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("course scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
