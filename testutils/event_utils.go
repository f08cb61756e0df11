package testutils

import (
	"database/sql/driver"
	"time"

	"notepin/notepin/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

// MockEventRows creates mock SQL rows for events testing
func MockEventRows(events []models.Event) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "event", "version", "entity",
		"timestamp", "data", "status",
		"dispatched", "dispatched_at",
	})

	for _, event := range events {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}
		if event.Data == "" {
			event.Data = `{}`
		}
		if event.Status == "" {
			event.Status = models.EventStatusPending
		}

		var dispatchedAt interface{}
		if event.DispatchedAt != nil {
			dispatchedAt = *event.DispatchedAt
		}

		rows.AddRow(
			event.ID.String(),
			event.Event,
			event.Version,
			event.Entity,
			event.Timestamp,
			event.Data,
			event.Status,
			event.Dispatched,
			dispatchedAt,
		)
	}

	return rows
}

// MockNoteRows creates mock SQL rows for notes testing
func MockNoteRows(notes []models.Note) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "title", "body", "color", "pinned", "trashed",
		"tags", "created_at", "updated_at",
	})

	for _, note := range notes {
		if note.ID == uuid.Nil {
			note.ID = uuid.New()
		}
		if note.Color == "" {
			note.Color = models.DefaultColor
		}

		rows.AddRow(
			note.ID.String(),
			note.Title,
			note.Body,
			note.Color,
			note.Pinned,
			note.Trashed,
			"[]",
			note.CreatedAt,
			note.UpdatedAt,
		)
	}

	return rows
}

func NewResult(lastInsertID, rowsAffected int64) driver.Result {
	return sqlmock.NewResult(lastInsertID, rowsAffected)
}
