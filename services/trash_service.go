package services

import (
	"errors"
	"fmt"

	"notepin/notepin/broker"
	"notepin/notepin/database"
	"notepin/notepin/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TrashServiceInterface interface {
	GetTrashedNotes(db *database.Database) ([]models.Note, error)
	RestoreNote(db *database.Database, id string) (models.Note, error)
	DeleteNoteForever(db *database.Database, id string) error
	EmptyTrash(db *database.Database) (int64, error)
}

type TrashService struct {
	notes NoteServiceInterface
}

func NewTrashService(notes NoteServiceInterface) TrashServiceInterface {
	return &TrashService{notes: notes}
}

func (s *TrashService) GetTrashedNotes(db *database.Database) ([]models.Note, error) {
	return s.notes.ListTrashedNotes(db)
}

// RestoreNote moves a note back to the active list.
func (s *TrashService) RestoreNote(db *database.Database, id string) (models.Note, error) {
	return s.notes.TrashNote(db, id, false)
}

// DeleteNoteForever removes the note row. It does not require the note to be
// in the trash.
func (s *TrashService) DeleteNoteForever(db *database.Database, id string) error {
	noteID, err := parseNoteID(id)
	if err != nil {
		return err
	}

	tx := db.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var note models.Note
	if err := tx.First(&note, "id = ?", noteID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("load note: %w", err)
	}

	if err := tx.Delete(&models.Note{}, "id = ?", noteID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("delete note: %w", err)
	}

	event, err := models.NewEvent(string(broker.NoteDeleted), "note", map[string]interface{}{
		"note_id": noteID.String(),
		"trashed": note.Trashed,
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("record note event: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	log.Info().Str("note_id", noteID.String()).Msg("note deleted permanently")
	return nil
}

// EmptyTrash permanently deletes every trashed note and reports how many
// were removed.
func (s *TrashService) EmptyTrash(db *database.Database) (int64, error) {
	tx := db.DB.Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}

	var ids []uuid.UUID
	if err := tx.Model(&models.Note{}).Where("trashed = ?", true).Pluck("id", &ids).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("collect trashed notes: %w", err)
	}

	if len(ids) == 0 {
		tx.Rollback()
		return 0, nil
	}

	result := tx.Where("id IN ?", ids).Delete(&models.Note{})
	if result.Error != nil {
		tx.Rollback()
		return 0, fmt.Errorf("empty trash: %w", result.Error)
	}

	noteIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		noteIDs = append(noteIDs, id.String())
	}

	event, err := models.NewEvent(string(broker.TrashEmptied), "trash", map[string]interface{}{
		"note_ids": noteIDs,
		"count":    result.RowsAffected,
	})
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("record trash event: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	log.Info().Int64("count", result.RowsAffected).Msg("trash emptied")
	return result.RowsAffected, nil
}

var TrashServiceInstance TrashServiceInterface = NewTrashService(NoteServiceInstance)
