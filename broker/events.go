package broker

type EventType string

const (
	// Standardized event types in format: <resource>.<action>
	NoteCreated   EventType = "note.created"
	NoteUpdated   EventType = "note.updated"
	NotePinned    EventType = "note.pinned"
	NoteRecolored EventType = "note.recolored"
	NoteTrashed   EventType = "note.trashed"
	NoteRestored  EventType = "note.restored"
	NoteDeleted   EventType = "note.deleted"

	// Trash events
	TrashEmptied EventType = "trash.emptied"
)
