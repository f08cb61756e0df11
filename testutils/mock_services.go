package testutils

import (
	"notepin/notepin/database"
	"notepin/notepin/models"

	"github.com/stretchr/testify/mock"
)

// MockNoteService mocks the NoteServiceInterface for testing
type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) ListNotes(db *database.Database, filter models.NoteFilter) ([]models.Note, error) {
	args := m.Called(db, filter)
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *MockNoteService) ListTrashedNotes(db *database.Database) ([]models.Note, error) {
	args := m.Called(db)
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *MockNoteService) GetNoteById(db *database.Database, id string) (models.Note, error) {
	args := m.Called(db, id)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) CreateNote(db *database.Database, title, body, color string) (models.Note, error) {
	args := m.Called(db, title, body, color)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) UpdateNote(db *database.Database, id, title, body string) (models.Note, error) {
	args := m.Called(db, id, title, body)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) SetPinned(db *database.Database, id string, pinned bool) (models.Note, error) {
	args := m.Called(db, id, pinned)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) SetColor(db *database.Database, id, color string) (models.Note, error) {
	args := m.Called(db, id, color)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) TrashNote(db *database.Database, id string, trashed bool) (models.Note, error) {
	args := m.Called(db, id, trashed)
	return args.Get(0).(models.Note), args.Error(1)
}

// MockTrashService mocks the TrashServiceInterface for testing
type MockTrashService struct {
	mock.Mock
}

func (m *MockTrashService) GetTrashedNotes(db *database.Database) ([]models.Note, error) {
	args := m.Called(db)
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *MockTrashService) RestoreNote(db *database.Database, id string) (models.Note, error) {
	args := m.Called(db, id)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockTrashService) DeleteNoteForever(db *database.Database, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

func (m *MockTrashService) EmptyTrash(db *database.Database) (int64, error) {
	args := m.Called(db)
	return args.Get(0).(int64), args.Error(1)
}
