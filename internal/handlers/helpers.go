package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fyzioakademie/internal/logger"
	"fyzioakademie/internal/middleware"
	"fyzioakademie/internal/models"
)

// currentUser: при отсутствии пользователя сразу отвечает 401.
func currentUser(c *gin.Context) (*models.AuthUser, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return u, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// internalError: 500 с логом; msg уходит клиенту как есть.
func internalError(c *gin.Context, where string, err error, msg string) {
	logger.FromGin(c, nil).Error(where, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
