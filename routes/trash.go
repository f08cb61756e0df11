package routes

import (
	"net/http"

	"notepin/notepin/database"
	"notepin/notepin/middleware"
	"notepin/notepin/services"

	"github.com/gin-gonic/gin"
)

func RegisterTrashRoutes(group *gin.RouterGroup, db *database.Database, trashService services.TrashServiceInterface) {
	group.GET("/trash", func(c *gin.Context) { GetTrashedNotes(c, db, trashService) })
	group.POST("/trash/:id/restore", func(c *gin.Context) { RestoreNote(c, db, trashService) })
	group.DELETE("/trash/:id", func(c *gin.Context) { DeleteNoteForever(c, db, trashService) })
	group.DELETE("/trash", func(c *gin.Context) { EmptyTrash(c, db, trashService) })
}

func GetTrashedNotes(c *gin.Context, db *database.Database, trashService services.TrashServiceInterface) {
	notes, err := trashService.GetTrashedNotes(db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func RestoreNote(c *gin.Context, db *database.Database, trashService services.TrashServiceInterface) {
	note, err := trashService.RestoreNote(db, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.TrackNoteOperation("restore")
	c.JSON(http.StatusOK, note)
}

func DeleteNoteForever(c *gin.Context, db *database.Database, trashService services.TrashServiceInterface) {
	if err := trashService.DeleteNoteForever(db, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	middleware.TrackNoteOperation("delete")
	c.Status(http.StatusNoContent)
}

func EmptyTrash(c *gin.Context, db *database.Database, trashService services.TrashServiceInterface) {
	count, err := trashService.EmptyTrash(db)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.TrackNoteOperation("empty_trash")
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
