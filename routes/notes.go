package routes

import (
	"errors"
	"net/http"
	"strconv"

	"notepin/notepin/database"
	"notepin/notepin/middleware"
	"notepin/notepin/models"
	"notepin/notepin/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type createNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Color string `json:"color"`
}

type updateNoteRequest struct {
	Title *string `json:"title" binding:"required"`
	Body  *string `json:"body" binding:"required"`
}

type pinNoteRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

type colorNoteRequest struct {
	Color *string `json:"color" binding:"required"`
}

type trashNoteRequest struct {
	Trashed *bool `json:"trashed" binding:"required"`
}

func RegisterNoteRoutes(group *gin.RouterGroup, db *database.Database, noteService services.NoteServiceInterface) {
	// Collection endpoints with query parameters
	group.GET("/notes", func(c *gin.Context) { GetNotes(c, db, noteService) })
	group.POST("/notes", func(c *gin.Context) { CreateNote(c, db, noteService) })

	// Resource-specific endpoints
	group.GET("/notes/:id", func(c *gin.Context) { GetNoteById(c, db, noteService) })
	group.PUT("/notes/:id", func(c *gin.Context) { UpdateNote(c, db, noteService) })
	group.PUT("/notes/:id/pin", func(c *gin.Context) { SetNotePinned(c, db, noteService) })
	group.PUT("/notes/:id/color", func(c *gin.Context) { SetNoteColor(c, db, noteService) })
	group.PUT("/notes/:id/trash", func(c *gin.Context) { TrashNote(c, db, noteService) })
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoteNotFound):
		middleware.TrackError("not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
	default:
		middleware.TrackError("db")
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.ErrInternal.Error()})
	}
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		middleware.TrackError("validation")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func GetNotes(c *gin.Context, db *database.Database, noteService services.NoteServiceInterface) {
	filter := models.NoteFilter{Search: c.Query("search")}

	if pinned := c.Query("pinned"); pinned != "" {
		value, err := strconv.ParseBool(pinned)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pinned must be a boolean"})
			return
		}
		filter.PinnedOnly = value
	}

	notes, err := noteService.ListNotes(db, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func CreateNote(c *gin.Context, db *database.Database, noteService services.NoteServiceInterface) {
	var req createNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := noteService.CreateNote(db, req.Title, req.Body, req.Color)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.TrackNoteOperation("create")
	c.JSON(http.StatusCreated, note)
}

func GetNoteById(c *gin.Context, db *database.Database, noteService services.NoteServiceInterface) {
	note, err := noteService.GetNoteById(db, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func UpdateNote(c *gin.Context, db *database.Database, noteService services.NoteServiceInterface) {
	var req updateNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := noteService.UpdateNote(db, c.Param("id"), *req.Title, *req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.TrackNoteOperation("update")
	c.JSON(http.StatusOK, note)
}

func SetNotePinned(c *gin.Context, db *database.Database, noteService services.NoteServiceInterface) {
	var req pinNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := noteService.SetPinned(db, c.Param("id"), *req.Pinned)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.TrackNoteOperation("pin")
	c.JSON(http.StatusOK, note)
}

func SetNoteColor(c *gin.Context, db *database.Database, noteService services.NoteServiceInterface) {
	var req colorNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := noteService.SetColor(db, c.Param("id"), *req.Color)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.TrackNoteOperation("color")
	c.JSON(http.StatusOK, note)
}

func TrashNote(c *gin.Context, db *database.Database, noteService services.NoteServiceInterface) {
	var req trashNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := noteService.TrashNote(db, c.Param("id"), *req.Trashed)
	if err != nil {
		respondError(c, err)
		return
	}
	if *req.Trashed {
		middleware.TrackNoteOperation("trash")
	} else {
		middleware.TrackNoteOperation("restore")
	}
	c.JSON(http.StatusOK, note)
}
