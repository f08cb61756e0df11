package models

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultTitle = "Untitled"
	DefaultColor = "yellow"
)

// AllowedColors lists the color labels a note may carry, in display order.
var AllowedColors = []string{"yellow", "blue", "green", "purple", "gray"}

// Note is the single persisted entity. Timestamps are milliseconds since the
// Unix epoch and are stamped by the service layer, never by gorm.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Color     string    `gorm:"not null" json:"color"`
	Pinned    bool      `gorm:"not null" json:"pinned"`
	Trashed   bool      `gorm:"not null;index" json:"trashed"`
	Tags      []string  `gorm:"serializer:json;type:text" json:"tags"`
	CreatedAt int64     `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt int64     `gorm:"not null;autoUpdateTime:false;index" json:"updated_at"`
}

// NormalizeTitle trims the title and substitutes DefaultTitle when nothing is left.
func NormalizeTitle(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return DefaultTitle
	}
	return trimmed
}

// NormalizeColor case-folds the color and falls back to DefaultColor when it
// is not one of AllowedColors.
func NormalizeColor(color string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	if IsAllowedColor(c) {
		return c
	}
	return DefaultColor
}

func IsAllowedColor(color string) bool {
	for _, allowed := range AllowedColors {
		if color == allowed {
			return true
		}
	}
	return false
}

func (n *Note) FromJSON(data []byte) error {
	return json.Unmarshal(data, n)
}

func (n *Note) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// NoteLookup is the result of a single-note live query.
type NoteLookup struct {
	Found bool  `json:"found"`
	Note  *Note `json:"note,omitempty"`
}

// NoteFilter narrows the active note list. An empty Search matches every note.
type NoteFilter struct {
	Search     string
	PinnedOnly bool
}
