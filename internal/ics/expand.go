package ics

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "fahrplan/internal/log"
	"fahrplan/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// RangeStart / RangeEnd bound the occurrences generated from an RRULE.
	// Non-recurring events are kept regardless of the range.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded event records and optionally
// information about truncation.
type ExpandResult struct {
	Events []model.EventRecord
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed VEVENTs into event records. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence (DAILY/WEEKLY/MONTHLY/YEARLY, etc.)
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
//
// Output follows the document order of the base events; occurrences of one
// recurring event follow each other in time order.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group overrides by UID; base events keep their position.
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		}
	}

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			continue
		}
		recs, hitCap := expandEvent(ev, overridesByUID[ev.UID], cfg)
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		result.Events = append(result.Events, recs...)
	}

	return result, nil
}

// expandEvent expands a single ParsedEvent (base event) with its possible
// overrides, returning records and whether the cap was hit.
func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.EventRecord, bool) {
	if ev.RawRRule == "" {
		return []model.EventRecord{expandSingleEvent(ev, overrides)}, false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent) model.EventRecord {
	id := eventUUID(ev.UID)
	if o, ok := findOverrideForStart(overrides, ev.Start); ok {
		return makeRecord(id, o, o.Start, o.End)
	}
	return makeRecord(id, ev, ev.Start, ev.End)
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.EventRecord, bool) {
	out := make([]model.EventRecord, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE; keeping first instance", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return []model.EventRecord{expandSingleEvent(ev, overrides)}, false
	}

	// Ensure Dtstart is set to the event's DTSTART.
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	baseID := eventUUID(ev.UID)
	dur := ev.End.Sub(ev.Start)

	for _, occStart := range occTimes {
		occEnd := occStart.Add(dur)

		// The first instance keeps the UID-derived id; later ones are keyed
		// by their original start so overrides do not change them.
		id := baseID
		if !occStart.Equal(ev.Start) {
			id = uuid.NewSHA1(baseID, []byte(occStart.UTC().Format(time.RFC3339Nano)))
		}

		if o, ok := findOverrideForStart(overrides, occStart); ok {
			out = append(out, makeRecord(id, o, o.Start, o.End))
			continue
		}
		out = append(out, makeRecord(id, ev, occStart, occEnd))
	}

	return out, hitCap
}

// findOverrideForStart finds the override whose RECURRENCE-ID equals start.
// When several revisions of one instance are present, the highest SEQUENCE
// wins; equal sequences keep the one seen last.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	var (
		best  ParsedEvent
		found bool
	)
	for _, ov := range overrides {
		if ov.Recurrence == nil || !ov.Recurrence.Equal(start) {
			continue
		}
		if !found || ov.Seq >= best.Seq {
			best = ov
			found = true
		}
	}
	return best, found
}

// makeRecord converts a (possibly overridden) ParsedEvent plus a concrete
// start/end into an import record.
func makeRecord(id uuid.UUID, ev ParsedEvent, start, end time.Time) model.EventRecord {
	typ := "event"
	if ev.AllDay {
		typ = "all-day"
	}
	persons := make([]model.PersonRecord, len(ev.Persons))
	copy(persons, ev.Persons)

	return model.EventRecord{
		GUID:        id,
		Start:       start,
		Duration:    end.Sub(start),
		Title:       ev.Summary,
		Description: ev.Description,
		Room:        ev.Location,
		Track:       ev.Categories,
		Type:        typ,
		URL:         ev.URL,
		Persons:     persons,
	}
}
