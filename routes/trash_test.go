package routes

import (
	"errors"
	"net/http"
	"testing"

	"notepin/notepin/database"
	"notepin/notepin/models"
	"notepin/notepin/services"
	"notepin/notepin/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTrashRouter(db *database.Database, svc services.TrashServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterTrashRoutes(router.Group("/api/v1"), db, svc)
	return router
}

func TestTrashRoutes(t *testing.T) {
	db := &database.Database{}
	mockService := new(testutils.MockTrashService)
	mockService.On("GetTrashedNotes", db).Return([]models.Note{testNote()}, nil)
	mockService.On("RestoreNote", db, testNoteID).Return(testNote(), nil)
	mockService.On("RestoreNote", db, "gone").Return(models.Note{}, services.ErrNoteNotFound)
	mockService.On("DeleteNoteForever", db, testNoteID).Return(nil)
	mockService.On("DeleteNoteForever", db, "gone").Return(services.ErrNoteNotFound)
	mockService.On("EmptyTrash", db).Return(int64(3), nil)
	router := setupTrashRouter(db, mockService)

	t.Run("List", func(t *testing.T) {
		w := perform(router, "GET", "/api/v1/trash", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Restore", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, perform(router, "POST", "/api/v1/trash/"+testNoteID+"/restore", "").Code)
		assert.Equal(t, http.StatusNotFound, perform(router, "POST", "/api/v1/trash/gone/restore", "").Code)
	})

	t.Run("Delete forever", func(t *testing.T) {
		w := perform(router, "DELETE", "/api/v1/trash/"+testNoteID, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, http.StatusNotFound, perform(router, "DELETE", "/api/v1/trash/gone", "").Code)
	})

	t.Run("Empty trash", func(t *testing.T) {
		w := perform(router, "DELETE", "/api/v1/trash", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"deleted":3}`, w.Body.String())
	})

	mockService.AssertExpectations(t)
}

func TestTrashRoutes_StoreFailure(t *testing.T) {
	db := &database.Database{}
	mockService := new(testutils.MockTrashService)
	mockService.On("EmptyTrash", db).Return(int64(0), errors.New("disk full"))
	router := setupTrashRouter(db, mockService)

	w := perform(router, "DELETE", "/api/v1/trash", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
