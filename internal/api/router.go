package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"reelworks/studio/internal/api/handlers"
	"reelworks/studio/internal/api/middleware"
	"reelworks/studio/internal/cache"
	"reelworks/studio/internal/config"
	"reelworks/studio/internal/email"
	"reelworks/studio/internal/models"
	"reelworks/studio/internal/services"
	"reelworks/studio/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, database *mongo.Database, rdb *redis.Client, emailSender email.Sender) *gin.Engine {
	// Initialize services needed by API handlers here.
	userService := services.NewUserService(database)
	projectService := services.NewProjectService(database)
	billingService := services.NewBillingService(database, cfg, projectService)

	markerStore := cache.NewRedisMarkerStore(rdb)
	notifier := email.NewEmailNotifier(cfg, emailSender)
	escalationService := services.NewEscalationService(cfg, markerStore, notifier, userService, billingService)
	paymentService := services.NewPaymentService(billingService, userService)

	storageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware first (order matters).
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewRestAuthHandler(cfg, userService)
	invoiceHandler := handlers.NewRestInvoiceHandler(billingService, userService, escalationService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	projectHandler := handlers.NewRestProjectHandler(projectService, storageService)
	adminHandler := handlers.NewRestAdminHandler(userService)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			// Billing routes stay reachable for suspended accounts so
			// they can settle the debt that suspended them.
			billing := authRequired.Group("/")
			billing.Use(middleware.RequireRole(models.RoleClient))
			{
				billing.GET("/invoice", invoiceHandler.ListInvoices)
				billing.POST("/payment/order", paymentHandler.CreateOrder)
				billing.POST("/payment/capture", paymentHandler.Capture)
			}

			// Project routes are off limits while suspended.
			projects := authRequired.Group("/")
			projects.Use(middleware.SuspensionGuard(userService))
			{
				projects.GET("/project", projectHandler.ListMyProjects)
				projects.POST("/project/:id/deliverable",
					middleware.RequireRole(models.RoleEditor, models.RoleDesigner, models.RoleReviewer, models.RoleAdmin),
					projectHandler.AttachDeliverable)
			}
		}

		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.RequireRole(models.RoleAdmin))
		{
			adminRequired.POST("/user", adminHandler.CreateUser)
			adminRequired.POST("/user/:id/suspend", adminHandler.SuspendUser)
			adminRequired.POST("/user/:id/unsuspend", adminHandler.UnsuspendUser)
		}
	}

	return r
}

// inboxWait is how long an inbox fetch blocks for a notification that
// has not landed yet. Escalation emails go through the task queue, so
// integration tests arrive before the message does.
const inboxWait = 3 * time.Second

// SetupServiceRouter returns the internal operations engine. It is
// bound separately from the public API and never exposed: deploy
// scripts use it to stop the process, and integration tests running
// against the Redis mock sender use it to read notifications back out.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/internal/shutdown", func(c *gin.Context) {
		log.Println("Service API: shutdown requested")
		c.JSON(http.StatusAccepted, gin.H{"stopping": true})
		select {
		case shutdownChan <- struct{}{}:
		default:
			// Already shutting down.
		}
	})

	// GET /internal/inbox/<recipient>/<kind> pops the latest mock email
	// of that kind for that recipient, e.g.
	// /internal/inbox/amal@example.com/invoice_reminder. Blocks briefly
	// so tests can call it right after triggering a scan.
	r.GET("/internal/inbox/:recipient/:kind", func(c *gin.Context) {
		key := fmt.Sprintf("mockemail:%s:%s", c.Param("recipient"), c.Param("kind"))
		ctx, cancel := context.WithTimeout(c.Request.Context(), inboxWait)
		defer cancel()

		var raw string
		for {
			var err error
			raw, err = rdb.GetDel(ctx, key).Result()
			if err == nil {
				break
			}
			if err != redis.Nil {
				log.Printf("Service API: reading inbox key %s: %v", key, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "redis error"})
				return
			}
			select {
			case <-ctx.Done():
				c.JSON(http.StatusNotFound, gin.H{"error": "no email for " + key})
				return
			case <-time.After(100 * time.Millisecond):
			}
		}

		var emailData map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &emailData); err != nil {
			log.Printf("Service API: bad email payload under %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stored email is not valid JSON"})
			return
		}
		c.JSON(http.StatusOK, emailData)
	})

	return r
}
