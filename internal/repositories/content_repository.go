package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fyzioakademie/internal/models"
)

type BlogRepository interface {
	List(ctx context.Context, limit, offset int) ([]*models.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*models.Blog, error)
}

type TeamMemberRepository interface {
	List(ctx context.Context) ([]*models.TeamMember, error)
}

type blogRepository struct {
	DB *sql.DB
}

func NewBlogRepository(db *sql.DB) BlogRepository {
	return &blogRepository{DB: db}
}

// List: без content, для листинга он не нужен.
func (r *blogRepository) List(ctx context.Context, limit, offset int) ([]*models.Blog, error) {
	const q = `
		SELECT id, title, slug, excerpt, cover_image, author, published_at
		FROM blogs
		WHERE is_published = TRUE
		ORDER BY published_at DESC NULLS LAST, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("blog list: %w", err)
	}
	defer rows.Close()

	var out []*models.Blog
	for rows.Next() {
		b := &models.Blog{}
		var publishedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.Title, &b.Slug, &b.Excerpt, &b.CoverImage, &b.Author, &publishedAt); err != nil {
			return nil, fmt.Errorf("blog scan: %w", err)
		}
		if publishedAt.Valid {
			b.PublishedAt = &publishedAt.Time
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *blogRepository) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	const q = `
		SELECT id, title, slug, excerpt, content, cover_image, author, published_at
		FROM blogs
		WHERE slug = $1 AND is_published = TRUE
	`
	b := &models.Blog{}
	var publishedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, slug).Scan(&b.ID, &b.Title, &b.Slug, &b.Excerpt, &b.Content, &b.CoverImage, &b.Author, &publishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("blog get: %w", err)
	}
	if publishedAt.Valid {
		b.PublishedAt = &publishedAt.Time
	}
	return b, nil
}

type teamMemberRepository struct {
	DB *sql.DB
}

func NewTeamMemberRepository(db *sql.DB) TeamMemberRepository {
	return &teamMemberRepository{DB: db}
}

func (r *teamMemberRepository) List(ctx context.Context) ([]*models.TeamMember, error) {
	const q = `
		SELECT id, name, role, bio, photo_url, sort_order
		FROM team_members
		WHERE is_active = TRUE
		ORDER BY sort_order, id
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("team list: %w", err)
	}
	defer rows.Close()

	var out []*models.TeamMember
	for rows.Next() {
		m := &models.TeamMember{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Bio, &m.PhotoURL, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("team scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
