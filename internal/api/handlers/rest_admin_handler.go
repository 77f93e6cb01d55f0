package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"reelworks/studio/internal/models"
	"reelworks/studio/internal/services"
)

// RestAdminHandler handles account administration endpoints.
type RestAdminHandler struct {
	userService services.IUserService
}

// NewRestAdminHandler creates a new RestAdminHandler.
func NewRestAdminHandler(userService services.IUserService) *RestAdminHandler {
	return &RestAdminHandler{userService: userService}
}

// CreateUserRequest is the body of POST /v1/admin/user.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
	GroupID  string `json:"group_id"`
}

var validRoles = map[models.Role]bool{
	models.RoleClient:   true,
	models.RoleEditor:   true,
	models.RoleDesigner: true,
	models.RoleReviewer: true,
	models.RoleAdmin:    true,
}

// CreateUser handles POST /v1/admin/user. Accounts are provisioned by
// admins only; there is no self-service signup.
func (h *RestAdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	role := models.Role(req.Role)
	if !validRoles[role] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password, role, req.GroupID)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		log.Printf("CreateUser: failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// SuspendRequest is the body of POST /v1/admin/user/:id/suspend.
type SuspendRequest struct {
	Reason string `json:"reason"`
}

// SuspendUser handles POST /v1/admin/user/:id/suspend.
func (h *RestAdminHandler) SuspendUser(c *gin.Context) {
	userID := c.Param("id")

	var req SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Reason == "" {
		req.Reason = "suspended by administrator"
	}

	transitioned, err := h.userService.Suspend(c.Request.Context(), userID, req.Reason)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("SuspendUser: failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to suspend user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suspended": true, "changed": transitioned})
}

// UnsuspendUser handles POST /v1/admin/user/:id/unsuspend.
func (h *RestAdminHandler) UnsuspendUser(c *gin.Context) {
	userID := c.Param("id")

	transitioned, err := h.userService.ClearSuspension(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("UnsuspendUser: failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unsuspend user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suspended": false, "changed": transitioned})
}
