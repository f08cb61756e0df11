package routes

import (
	"notepin/notepin/services"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes exposes the live query WebSocket endpoint
func RegisterWebSocketRoutes(group *gin.RouterGroup, wsService services.WebSocketServiceInterface) {
	group.GET("/ws", func(c *gin.Context) {
		wsService.HandleConnection(c)
	})
}
