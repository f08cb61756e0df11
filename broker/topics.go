package broker

const (
	// NoteEventsSubject carries every dispatched note and trash event.
	NoteEventsSubject = "notes.events"
)

// SubjectForEntity maps an outbox entity to the subject it is published on.
func SubjectForEntity(entity string) string {
	switch entity {
	case "note", "trash":
		return NoteEventsSubject
	default:
		return NoteEventsSubject + "." + entity
	}
}
