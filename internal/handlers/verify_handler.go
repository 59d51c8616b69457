package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fyzioakademie/internal/services"
)

type verifyRegistrationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyRegistration godoc
//
//	@Summary	Confirm registration with the emailed code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		verifyRegistrationRequest	true	"Code"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	map[string]string
//	@Router		/auth/register/verify [post]
func (h *AuthHandler) VerifyRegistration(c *gin.Context) {
	var req verifyRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
		return
	}

	user, err := h.Registration.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		if msg, ok := codeErrorMessage(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		internalError(c, "[auth][register] verify failed", err, "Verification failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user_id": user.ID, "email": user.Email})
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, code and new_password are required"})
		return
	}

	err := h.PasswordReset.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		if msg, ok := codeErrorMessage(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		internalError(c, "[auth][reset] verify failed", err, "Password reset failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}

// codeErrorMessage: ошибки проверки кода, которые показываем пользователю.
func codeErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrNoPendingCode):
		return "No pending verification for this email", true
	case errors.Is(err, services.ErrCodeExpired):
		return "Code expired, please request a new one", true
	case errors.Is(err, services.ErrTooManyAttempts):
		return "Too many attempts, please request a new code", true
	case errors.Is(err, services.ErrCodeInvalid):
		return "Invalid code", true
	case errors.Is(err, services.ErrEmailTaken):
		return "User already registered", true
	case errors.Is(err, services.ErrWeakPassword):
		return "Password must be at least 6 characters", true
	}
	return "", false
}
