package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"notepin/notepin/broker"
	"notepin/notepin/database"
	"notepin/notepin/models"
	"notepin/notepin/testutils"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBroker struct{}

func (failingBroker) Publish(string, []byte) error { return assert.AnError }

func (failingBroker) Subscribe(string, broker.Handler) (broker.Subscription, error) {
	return nil, assert.AnError
}

func (failingBroker) Close() {}

type feedRecorder struct {
	mu       sync.Mutex
	messages []map[string]interface{}
}

func (r *feedRecorder) handle(msg broker.Message) {
	var decoded map[string]interface{}
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, decoded)
}

func (r *feedRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m["type"].(string))
	}
	return out
}

func pendingEvents(t *testing.T, db *database.Database) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.DB.Model(&models.Event{}).Where("dispatched = ?", false).Count(&count).Error)
	return count
}

func TestEventHandlerService_DispatchPending(t *testing.T) {
	db := testutils.SetupTestDB(t)
	feed := broker.NewMemoryBroker()
	defer feed.Close()

	recorder := &feedRecorder{}
	_, err := feed.Subscribe(broker.NoteEventsSubject, recorder.handle)
	require.NoError(t, err)

	notes := NewNoteService(false)
	note, err := notes.CreateNote(db, "hello", "", "")
	require.NoError(t, err)
	_, err = notes.SetPinned(db, note.ID.String(), true)
	require.NoError(t, err)

	service := NewEventHandlerService(db, feed, time.Second)
	count, err := service.DispatchPending()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Zero(t, pendingEvents(t, db))

	assert.Eventually(t, func() bool { return len(recorder.types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"note.created", "note.pinned"}, recorder.types())

	recorder.mu.Lock()
	payload := recorder.messages[0]["payload"].(map[string]interface{})
	recorder.mu.Unlock()
	assert.Equal(t, note.ID.String(), payload["note_id"])
	assert.Equal(t, "note", payload["entity"])

	var event models.Event
	require.NoError(t, db.DB.First(&event).Error)
	assert.Equal(t, models.EventStatusCompleted, event.Status)
	assert.NotNil(t, event.DispatchedAt)

	count, err = service.DispatchPending()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEventHandlerService_PublishFailureKeepsEvent(t *testing.T) {
	db := testutils.SetupTestDB(t)

	_, err := NewNoteService(false).CreateNote(db, "hello", "", "")
	require.NoError(t, err)

	service := NewEventHandlerService(db, failingBroker{}, time.Second)
	count, err := service.DispatchPending()

	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, count)
	assert.Equal(t, int64(1), pendingEvents(t, db))
}

func TestEventHandlerService_DispatchPendingMarksRow(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	feed := broker.NewMemoryBroker()
	defer feed.Close()
	recorder := &feedRecorder{}
	_, err := feed.Subscribe(broker.NoteEventsSubject, recorder.handle)
	require.NoError(t, err)

	eventID := uuid.New()
	noteID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "events" WHERE dispatched = \$1 ORDER BY timestamp ASC LIMIT \$2`).
		WithArgs(false, sqlmock.AnyArg()).
		WillReturnRows(testutils.MockEventRows([]models.Event{{
			ID:      eventID,
			Event:   "note.created",
			Version: 1,
			Entity:  "note",
			Data:    `{"note_id":"` + noteID.String() + `"}`,
		}}))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "events" SET`).
		WithArgs(true, sqlmock.AnyArg(), models.EventStatusCompleted, eventID.String()).
		WillReturnResult(testutils.NewResult(0, 1))
	mock.ExpectCommit()

	service := NewEventHandlerService(db, feed, time.Second)
	count, err := service.DispatchPending()

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Eventually(t, func() bool { return len(recorder.types()) == 1 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventHandlerService_PublishFailureSkipsUpdate(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE dispatched = \$1`).
		WithArgs(false, sqlmock.AnyArg()).
		WillReturnRows(testutils.MockEventRows([]models.Event{{Event: "note.trashed", Version: 1, Entity: "note"}}))

	service := NewEventHandlerService(db, failingBroker{}, time.Second)
	count, err := service.DispatchPending()

	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventHandlerService_Ticker(t *testing.T) {
	db := testutils.SetupTestDB(t)
	feed := broker.NewMemoryBroker()
	defer feed.Close()

	service := NewEventHandlerService(db, feed, 10*time.Millisecond)
	service.Start()
	defer service.Stop()

	_, err := NewNoteService(false).CreateNote(db, "hello", "", "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		var count int64
		err := db.DB.Model(&models.Event{}).Where("dispatched = ?", false).Count(&count).Error
		return err == nil && count == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventHandlerService_Lifecycle(t *testing.T) {
	db := &database.Database{}
	service := NewEventHandlerService(db, broker.NewMemoryBroker(), time.Hour)

	// Test Start
	service.Start()
	assert.True(t, service.isRunning)

	// Test double Start
	service.Start() // Should be no-op
	assert.True(t, service.isRunning)

	// Test Stop
	service.Stop()
	assert.False(t, service.isRunning)

	// Test double Stop
	service.Stop() // Should be no-op
	assert.False(t, service.isRunning)
}
