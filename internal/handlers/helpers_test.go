package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"fyzioakademie/internal/middleware"
	"fyzioakademie/internal/models"
)

var student = &models.AuthUser{
	ID:       uuid.MustParse("6b1f7a52-2d7e-4c0e-9a43-8f3c1d2e5b71"),
	Email:    "jana@example.cz",
	FullName: "Jana Dvořáková",
}

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter: user != nil имитирует пройденный AuthMiddleware.
func newRouter(user *models.AuthUser) *gin.Engine {
	r := gin.New()
	if user != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, user)
			c.Next()
		})
	}
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
