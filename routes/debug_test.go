package routes

import (
	"net/http"
	"testing"

	"notepin/notepin/services"
	"notepin/notepin/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndEventQueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutils.SetupTestDB(t)
	router := gin.New()
	SetupHealthRoutes(router, db)
	SetupDebugRoutes(router, db)

	assert.Equal(t, http.StatusOK, perform(router, "GET", "/healthz", "").Code)

	note, err := services.NewNoteService(false).CreateNote(db, "queued", "", "")
	require.NoError(t, err)

	w := perform(router, "GET", "/api/v1/debug/event-queue", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending_events":1`)

	w = perform(router, "GET", "/api/v1/debug/note-exists/"+note.ID.String(), "")
	assert.Contains(t, w.Body.String(), `"exists":true`)
}
