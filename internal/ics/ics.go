// Package ics decodes the iCalendar export of a conference schedule into
// import records, expanding recurring entries over a bounded horizon.
package ics

import (
	"fmt"
	"time"

	"fahrplan/internal/model"
)

// Decode parses body and expands recurrences from the earliest DTSTART up to
// horizon later.
func Decode(body []byte, horizon time.Duration) (model.Import, error) {
	parsed, name, err := ParseICS(body)
	if err != nil {
		return model.Import{}, fmt.Errorf("ics: %w", err)
	}

	imp := model.Import{Conference: model.Conference{Title: name}}
	if len(parsed) == 0 {
		return imp, nil
	}

	earliest := parsed[0].Start
	for _, ev := range parsed[1:] {
		if ev.Start.Before(earliest) {
			earliest = ev.Start
		}
	}

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		RangeStart: earliest,
		RangeEnd:   earliest.Add(horizon),
	})
	if err != nil {
		return model.Import{}, fmt.Errorf("ics: %w", err)
	}

	imp.Events = res.Events
	return imp, nil
}
