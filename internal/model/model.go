package model

import (
	"time"

	"github.com/google/uuid"
)

// Import is everything a decoder (frab XML, iCalendar) produces from one
// schedule document. Events keep document order; that order decides which
// event wins a grid column when several start at the same instant.
type Import struct {
	Conference Conference
	Events     []EventRecord
}

// Conference carries the document-level metadata shown in the grid header.
type Conference struct {
	Acronym string
	Title   string
	URL     string

	// Start / End are zero when the source does not declare them.
	Start time.Time
	End   time.Time
}

// EventRecord is a single decoded talk/session before it enters the
// schedule store.
type EventRecord struct {
	GUID uuid.UUID

	// Start keeps the offset declared by the source.
	Start    time.Time
	Duration time.Duration

	Title       string
	Subtitle    string
	Abstract    string
	Description string

	Room     string
	Track    string
	Type     string
	Language string

	URL string
	// FeedbackURL is nil when the source does not provide one.
	FeedbackURL *string
	Links       []LinkRecord

	// Persons is the ordered speaker list.
	Persons []PersonRecord
}

// PersonRecord is a speaker reference as it appears inside an event.
type PersonRecord struct {
	GUID uuid.UUID
	Name string
}

// LinkRecord is one label/URL pair from an event's link list.
type LinkRecord struct {
	Label string
	URL   string
}
