package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fyzioakademie/internal/logger"
	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type RegistrationFlow interface {
	SendCode(ctx context.Context, in services.RegistrationInput) error
	Verify(ctx context.Context, email, code string) (*models.AuthUser, error)
}

type PasswordResetFlow interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// AuthHandler: регистрация и сброс пароля по коду из письма.
// Вход и выдача токенов на стороне Supabase.
type AuthHandler struct {
	Registration  RegistrationFlow
	PasswordReset PasswordResetFlow
}

func NewAuthHandler(reg RegistrationFlow, reset PasswordResetFlow) *AuthHandler {
	return &AuthHandler{Registration: reg, PasswordReset: reset}
}

type sendRegistrationCodeRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// SendRegistrationCode godoc
//
//	@Summary	Send a registration verification code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		sendRegistrationCodeRequest	true	"Registration"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	map[string]string
//	@Router		/auth/register/send-code [post]
func (h *AuthHandler) SendRegistrationCode(c *gin.Context) {
	var req sendRegistrationCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email and password are required"})
		return
	}

	err := h.Registration.SendCode(c.Request.Context(), services.RegistrationInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		if errors.Is(err, services.ErrWeakPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
			return
		}
		internalError(c, "[auth][register] send code failed", err, "Failed to send verification code")
		return
	}
	logger.FromGin(c, nil).Info("[auth][register] code sent")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent"})
}

type sendResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendResetCode: ответ одинаковый, есть такой email или нет.
func (h *AuthHandler) SendResetCode(c *gin.Context) {
	var req sendResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}
	if err := h.PasswordReset.RequestReset(c.Request.Context(), req.Email); err != nil {
		internalError(c, "[auth][reset] send code failed", err, "Failed to send reset code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If the account exists, a code has been sent"})
}
