package auth

import (
	"net/http"

	"stayhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/verify-email", h.VerifyEmail)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.POST("/password-reset/request", h.RequestPasswordReset)
	g.POST("/password-reset/confirm", h.ConfirmPasswordReset)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if err == ErrEmailAlreadyExists {
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "Email is already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), req); err != nil {
		if err == ErrInvalidCode {
			response.Error(c, http.StatusBadRequest, "INVALID_CODE", "Invalid or expired code")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Verification failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verified": true})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, pair, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		case ErrEmailNotVerified:
			response.Error(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Verify your email first")
		case ErrAccountLocked:
			response.Error(c, http.StatusForbidden, "ACCOUNT_LOCKED", "Account temporarily locked")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   user,
		"tokens": TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	pair, err := h.service.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case ErrTokenReused:
			response.Error(c, http.StatusUnauthorized, "TOKEN_REUSED", "Refresh token already used")
		case ErrInvalidRefreshToken:
			response.Error(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Token refresh failed")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tokens": TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

func (h *Handler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Logout failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Password reset request failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ConfirmPasswordReset(c.Request.Context(), req); err != nil {
		if err == ErrInvalidCode {
			response.Error(c, http.StatusBadRequest, "INVALID_CODE", "Invalid or expired code")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Password reset failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reset": true})
}
