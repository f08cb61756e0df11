package services

import (
	"testing"

	"notepin/notepin/models"
	"notepin/notepin/testutils"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteNoteForever_NotFound(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	noteID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "notes" WHERE id = \$1`).
		WithArgs(noteID.String(), sqlmock.AnyArg()).
		WillReturnRows(testutils.MockNoteRows(nil))
	mock.ExpectRollback()

	trashService := NewTrashService(NewNoteService(false))
	err := trashService.DeleteNoteForever(db, noteID.String())

	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNoteForever(t *testing.T) {
	db := testutils.SetupTestDB(t)
	notes := NewNoteService(false)
	trashService := NewTrashService(notes)

	note, err := notes.CreateNote(db, "gone", "", "")
	require.NoError(t, err)
	_, err = notes.TrashNote(db, note.ID.String(), true)
	require.NoError(t, err)

	require.NoError(t, trashService.DeleteNoteForever(db, note.ID.String()))

	_, err = notes.GetNoteById(db, note.ID.String())
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, int64(1), countEvents(t, db, "note.deleted"))

	err = trashService.DeleteNoteForever(db, note.ID.String())
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestDeleteNoteForever_ActiveNote(t *testing.T) {
	db := testutils.SetupTestDB(t)
	notes := NewNoteService(false)
	trashService := NewTrashService(notes)

	note, err := notes.CreateNote(db, "active", "", "")
	require.NoError(t, err)

	require.NoError(t, trashService.DeleteNoteForever(db, note.ID.String()))

	active, err := notes.ListNotes(db, models.NoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRestoreNote(t *testing.T) {
	db := testutils.SetupTestDB(t)
	notes := NewNoteService(false)
	trashService := NewTrashService(notes)

	note, err := notes.CreateNote(db, "back", "", "green")
	require.NoError(t, err)
	_, err = notes.TrashNote(db, note.ID.String(), true)
	require.NoError(t, err)

	trashed, err := trashService.GetTrashedNotes(db)
	require.NoError(t, err)
	require.Len(t, trashed, 1)

	restored, err := trashService.RestoreNote(db, note.ID.String())
	require.NoError(t, err)
	assert.False(t, restored.Trashed)
	assert.Equal(t, "green", restored.Color)

	trashed, err = trashService.GetTrashedNotes(db)
	require.NoError(t, err)
	assert.Empty(t, trashed)

	_, err = trashService.RestoreNote(db, uuid.New().String())
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestEmptyTrash(t *testing.T) {
	db := testutils.SetupTestDB(t)
	notes := NewNoteService(false)
	trashService := NewTrashService(notes)

	count, err := trashService.EmptyTrash(db)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, countEvents(t, db, "trash.emptied"))

	keep, err := notes.CreateNote(db, "keep", "", "")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		n, err := notes.CreateNote(db, "bin", "", "")
		require.NoError(t, err)
		_, err = notes.TrashNote(db, n.ID.String(), true)
		require.NoError(t, err)
	}

	count, err = trashService.EmptyTrash(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	trashed, err := trashService.GetTrashedNotes(db)
	require.NoError(t, err)
	assert.Empty(t, trashed)

	remaining, err := notes.ListNotes(db, models.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)
	assert.Equal(t, int64(1), countEvents(t, db, "trash.emptied"))
}
