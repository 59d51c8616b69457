package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type ContentService interface {
	ListCourses(ctx context.Context) ([]*models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	ListBlogs(ctx context.Context, page, limit int) ([]*models.Blog, error)
	GetBlog(ctx context.Context, slug string) (*models.Blog, error)
	ListTeam(ctx context.Context) ([]*models.TeamMember, error)
}

type ContentHandler struct {
	Service ContentService
}

func NewContentHandler(s ContentService) *ContentHandler {
	return &ContentHandler{Service: s}
}

// ListCourses godoc
//
//	@Summary	List published courses
//	@Tags		content
//	@Produce	json
//	@Success	200	{array}	models.Course
//	@Router		/courses [get]
func (h *ContentHandler) ListCourses(c *gin.Context) {
	list, err := h.Service.ListCourses(c.Request.Context())
	if err != nil {
		internalError(c, "[content][courses] list failed", err, "Failed to load courses")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ContentHandler) GetCourse(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	course, err := h.Service.GetCourse(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		internalError(c, "[content][course] get failed", err, "Failed to load course")
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *ContentHandler) ListBlogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	list, err := h.Service.ListBlogs(c.Request.Context(), page, limit)
	if err != nil {
		internalError(c, "[content][blogs] list failed", err, "Failed to load blogs")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ContentHandler) GetBlog(c *gin.Context) {
	blog, err := h.Service.GetBlog(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrBlogNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
			return
		}
		internalError(c, "[content][blog] get failed", err, "Failed to load blog")
		return
	}
	c.JSON(http.StatusOK, blog)
}

func (h *ContentHandler) ListTeam(c *gin.Context) {
	list, err := h.Service.ListTeam(c.Request.Context())
	if err != nil {
		internalError(c, "[content][team] list failed", err, "Failed to load team")
		return
	}
	c.JSON(http.StatusOK, list)
}
