package routes

import (
	"context"
	"net/http"
	"time"

	"notepin/notepin/database"
	"notepin/notepin/models"

	"github.com/gin-gonic/gin"
)

// SetupHealthRoutes registers the liveness check
func SetupHealthRoutes(router *gin.Engine, db *database.Database) {
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// SetupDebugRoutes sets up routes for debugging
func SetupDebugRoutes(router *gin.Engine, db *database.Database) {
	debugGroup := router.Group("/api/v1/debug")
	{
		debugGroup.GET("/note-exists/:id", func(c *gin.Context) {
			var note models.Note
			result := db.DB.Where("id = ?", c.Param("id")).First(&note)

			if result.Error != nil {
				c.JSON(http.StatusOK, gin.H{
					"exists": false,
					"error":  result.Error.Error(),
					"time":   time.Now(),
				})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"exists":  true,
				"id":      note.ID,
				"title":   note.Title,
				"trashed": note.Trashed,
				"time":    time.Now(),
			})
		})

		// Outbox rows not yet published to the change feed
		debugGroup.GET("/event-queue", func(c *gin.Context) {
			var events []models.Event
			if err := db.DB.Where("dispatched = ?", false).Order("timestamp ASC").Find(&events).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"pending_events": len(events),
				"events":         events,
				"time":           time.Now(),
			})
		})
	}
}
