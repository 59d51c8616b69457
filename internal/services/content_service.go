package services

import (
	"context"
	"errors"
	"strings"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/repositories"
)

var ErrBlogNotFound = errors.New("blog not found")

const (
	defaultBlogLimit = 12
	maxBlogLimit     = 50
)

type ContentService struct {
	courses repositories.CourseRepository
	blogs   repositories.BlogRepository
	team    repositories.TeamMemberRepository
}

func NewContentService(courses repositories.CourseRepository, blogs repositories.BlogRepository, team repositories.TeamMemberRepository) *ContentService {
	return &ContentService{courses: courses, blogs: blogs, team: team}
}

func (s *ContentService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	out, err := s.courses.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.Course{}
	}
	return out, nil
}

// GetCourse: неопубликованный курс для публики не существует.
func (s *ContentService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsPublished {
		return nil, ErrCourseNotFound
	}
	return c, nil
}

// ListBlogs: page с 1, limit обрезается до maxBlogLimit.
func (s *ContentService) ListBlogs(ctx context.Context, page, limit int) ([]*models.Blog, error) {
	if limit <= 0 {
		limit = defaultBlogLimit
	}
	if limit > maxBlogLimit {
		limit = maxBlogLimit
	}
	if page < 1 {
		page = 1
	}
	out, err := s.blogs.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.Blog{}
	}
	return out, nil
}

func (s *ContentService) GetBlog(ctx context.Context, slug string) (*models.Blog, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrBlogNotFound
	}
	b, err := s.blogs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBlogNotFound
	}
	return b, nil
}

func (s *ContentService) ListTeam(ctx context.Context) ([]*models.TeamMember, error) {
	out, err := s.team.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.TeamMember{}
	}
	return out, nil
}
