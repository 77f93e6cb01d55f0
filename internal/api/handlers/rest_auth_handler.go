package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"reelworks/studio/internal/auth"
	"reelworks/studio/internal/config"
	"reelworks/studio/internal/services"
)

// RestAuthHandler handles login requests.
type RestAuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
}

// NewRestAuthHandler creates a new RestAuthHandler.
func NewRestAuthHandler(cfg *config.Config, userService services.IUserService) *RestAuthHandler {
	return &RestAuthHandler{cfg: cfg, userService: userService}
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and minimal profile data.
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Suspended bool   `json:"suspended"`
}

// Login handles POST /v1/auth/login. Suspended accounts still get a
// token; the suspension guard decides per route what they may reach.
func (h *RestAuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("Login: authentication error for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		log.Printf("Login: failed to sign token for user %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		UserID:    user.ID,
		Name:      user.Name,
		Role:      string(user.Role),
		Suspended: user.Suspended,
	})
}
