package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"reelworks/studio/internal/api/middleware"
	"reelworks/studio/internal/models"
	"reelworks/studio/internal/services"
	"reelworks/studio/internal/storage"
)

// RestProjectHandler serves project listings and deliverable uploads.
type RestProjectHandler struct {
	projectService services.IProjectService
	storageService storage.IDeliverableStorage
}

// NewRestProjectHandler creates a new RestProjectHandler.
func NewRestProjectHandler(projectService services.IProjectService, storageService storage.IDeliverableStorage) *RestProjectHandler {
	return &RestProjectHandler{
		projectService: projectService,
		storageService: storageService,
	}
}

// ProjectView is a project plus resolved deliverable links.
type ProjectView struct {
	models.Project
	ResolvedFileLinks   []string `json:"resolved_file_links"`
	ResolvedDesignLinks []string `json:"resolved_design_links"`
}

func (h *RestProjectHandler) resolveLinks(c *gin.Context, projectID string, keys []string) []string {
	resolved := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := h.storageService.PresignDownload(c.Request.Context(), key)
		if err != nil {
			log.Printf("Project %s: failed to presign deliverable %s: %v", projectID, key, err)
			continue
		}
		resolved = append(resolved, url)
	}
	return resolved
}

// ListMyProjects handles GET /v1/project. Clients see their own
// projects with deliverable keys resolved to short-lived URLs.
func (h *RestProjectHandler) ListMyProjects(c *gin.Context) {
	clientID := c.GetString(middleware.ContextKeyUserID)

	projects, err := h.projectService.FindByClient(c.Request.Context(), clientID)
	if err != nil {
		log.Printf("ListMyProjects: failed for client %s: %v", clientID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, ProjectView{
			Project:             p,
			ResolvedFileLinks:   h.resolveLinks(c, p.ID, p.FileLinks),
			ResolvedDesignLinks: h.resolveLinks(c, p.ID, p.DesignLinks),
		})
	}

	c.JSON(http.StatusOK, gin.H{"projects": views, "as_of": time.Now().UTC()})
}

// AttachDeliverableRequest is the body of POST /v1/project/:id/deliverable.
type AttachDeliverableRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	Design      bool   `json:"design"` // true for thumbnail/design assets
}

// AttachDeliverable handles POST /v1/project/:id/deliverable. Staff
// request an upload URL for a deliverable; the object key is recorded
// on the project immediately so the client's next listing shows it.
func (h *RestProjectHandler) AttachDeliverable(c *gin.Context) {
	projectID := c.Param("id")

	var req AttachDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if _, err := h.projectService.FindByID(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			log.Printf("AttachDeliverable: failed to load project %s: %v", projectID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		}
		return
	}

	uploadURL, objectKey, err := h.storageService.PresignUpload(c.Request.Context(), projectID, req.Filename, req.ContentType)
	if err != nil {
		log.Printf("AttachDeliverable: failed to presign upload for project %s: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare upload"})
		return
	}

	if req.Design {
		err = h.projectService.AddDesignLink(c.Request.Context(), projectID, objectKey)
	} else {
		err = h.projectService.AddFileLink(c.Request.Context(), projectID, objectKey)
	}
	if err != nil {
		log.Printf("AttachDeliverable: failed to record deliverable on project %s: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record deliverable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload_url": uploadURL, "object_key": objectKey})
}
