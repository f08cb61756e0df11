package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"notepin/notepin/broker"
	"notepin/notepin/database"
	"notepin/notepin/models"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type NoteServiceInterface interface {
	ListNotes(db *database.Database, filter models.NoteFilter) ([]models.Note, error)
	ListTrashedNotes(db *database.Database) ([]models.Note, error)
	GetNoteById(db *database.Database, id string) (models.Note, error)
	CreateNote(db *database.Database, title, body, color string) (models.Note, error)
	UpdateNote(db *database.Database, id, title, body string) (models.Note, error)
	SetPinned(db *database.Database, id string, pinned bool) (models.Note, error)
	SetColor(db *database.Database, id, color string) (models.Note, error)
	TrashNote(db *database.Database, id string, trashed bool) (models.Note, error)
}

type NoteService struct {
	// sanitizer is nil unless body sanitizing is switched on.
	sanitizer *bluemonday.Policy
}

func NewNoteService(sanitizeBody bool) *NoteService {
	s := &NoteService{}
	if sanitizeBody {
		s.sanitizer = bluemonday.UGCPolicy()
	}
	return s
}

// nowMillis is replaced in tests to pin the clock.
var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}

// nextStamp returns a modification time strictly after prev.
func nextStamp(prev int64) int64 {
	now := nowMillis()
	if now <= prev {
		return prev + 1
	}
	return now
}

// likePattern lower-cases text and escapes LIKE wildcards so the search is a
// plain substring match.
func likePattern(text string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(text)) + "%"
}

func parseNoteID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrNoteNotFound
	}
	return parsed, nil
}

func (s *NoteService) body(body string) string {
	if s.sanitizer == nil {
		return body
	}
	return s.sanitizer.Sanitize(body)
}

func (s *NoteService) ListNotes(db *database.Database, filter models.NoteFilter) ([]models.Note, error) {
	query := db.DB.Model(&models.Note{}).Where("trashed = ?", false)

	if filter.PinnedOnly {
		query = query.Where("pinned = ?", true)
	}

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(body) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	notes := []models.Note{}
	if err := query.Order("updated_at DESC").Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *NoteService) ListTrashedNotes(db *database.Database) ([]models.Note, error) {
	notes := []models.Note{}
	if err := db.DB.Where("trashed = ?", true).
		Order("updated_at DESC").
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list trashed notes: %w", err)
	}
	return notes, nil
}

func (s *NoteService) GetNoteById(db *database.Database, id string) (models.Note, error) {
	noteID, err := parseNoteID(id)
	if err != nil {
		return models.Note{}, err
	}

	var note models.Note
	if err := db.DB.First(&note, "id = ?", noteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Note{}, ErrNoteNotFound
		}
		return models.Note{}, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

func (s *NoteService) CreateNote(db *database.Database, title, body, color string) (models.Note, error) {
	now := nowMillis()
	note := models.Note{
		ID:        uuid.New(),
		Title:     models.NormalizeTitle(title),
		Body:      s.body(body),
		Color:     models.NormalizeColor(color),
		Pinned:    false,
		Trashed:   false,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Note{}, tx.Error
	}

	if err := tx.Create(&note).Error; err != nil {
		tx.Rollback()
		return models.Note{}, fmt.Errorf("create note: %w", err)
	}

	event, err := models.NewEvent(string(broker.NoteCreated), "note", noteEventData(note))
	if err != nil {
		tx.Rollback()
		return models.Note{}, err
	}

	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Note{}, fmt.Errorf("record note event: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return models.Note{}, err
	}

	log.Debug().Str("note_id", note.ID.String()).Msg("note created")
	return note, nil
}

func (s *NoteService) UpdateNote(db *database.Database, id, title, body string) (models.Note, error) {
	return s.patch(db, id, broker.NoteUpdated, map[string]interface{}{
		"title": models.NormalizeTitle(title),
		"body":  s.body(body),
	})
}

func (s *NoteService) SetPinned(db *database.Database, id string, pinned bool) (models.Note, error) {
	return s.patch(db, id, broker.NotePinned, map[string]interface{}{
		"pinned": pinned,
	})
}

func (s *NoteService) SetColor(db *database.Database, id, color string) (models.Note, error) {
	return s.patch(db, id, broker.NoteRecolored, map[string]interface{}{
		"color": models.NormalizeColor(color),
	})
}

func (s *NoteService) TrashNote(db *database.Database, id string, trashed bool) (models.Note, error) {
	event := broker.NoteTrashed
	if !trashed {
		event = broker.NoteRestored
	}
	return s.patch(db, id, event, map[string]interface{}{
		"trashed": trashed,
	})
}

// patch applies fields plus a fresh updated_at to one note and records the
// matching outbox event in the same transaction.
func (s *NoteService) patch(db *database.Database, id string, eventType broker.EventType, fields map[string]interface{}) (models.Note, error) {
	noteID, err := parseNoteID(id)
	if err != nil {
		return models.Note{}, err
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return models.Note{}, tx.Error
	}

	var note models.Note
	if err := tx.First(&note, "id = ?", noteID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Note{}, ErrNoteNotFound
		}
		return models.Note{}, fmt.Errorf("load note: %w", err)
	}

	fields["updated_at"] = nextStamp(note.UpdatedAt)
	if err := tx.Model(&note).Updates(fields).Error; err != nil {
		tx.Rollback()
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}

	if err := tx.First(&note, "id = ?", noteID).Error; err != nil {
		tx.Rollback()
		return models.Note{}, fmt.Errorf("reload note: %w", err)
	}

	event, err := models.NewEvent(string(eventType), "note", noteEventData(note))
	if err != nil {
		tx.Rollback()
		return models.Note{}, err
	}

	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return models.Note{}, fmt.Errorf("record note event: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return models.Note{}, err
	}

	log.Debug().Str("note_id", note.ID.String()).Str("event", string(eventType)).Msg("note changed")
	return note, nil
}

func noteEventData(note models.Note) map[string]interface{} {
	return map[string]interface{}{
		"note_id":    note.ID.String(),
		"title":      note.Title,
		"color":      note.Color,
		"pinned":     note.Pinned,
		"trashed":    note.Trashed,
		"updated_at": note.UpdatedAt,
	}
}

var NoteServiceInstance NoteServiceInterface = NewNoteService(false)
