package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "fahrplan/internal/log"
	"fahrplan/internal/model"
)

var (
	eventNamespace  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fahrplan:ics:event"))
	personNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fahrplan:ics:person"))
)

// ParsedEvent is the normalized representation of a VEVENT as produced
// by the ICS parser. Recurrence expansion operates on this type.
type ParsedEvent struct {
	UID string
	Seq int // SEQUENCE; the highest revision of an override wins

	Summary     string
	Description string
	Location    string
	URL         string
	Categories  string

	// Persons are ORGANIZER followed by ATTENDEEs, in document order.
	Persons []model.PersonRecord

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present) in event's own timezone
	IsOverride bool       // true if this VEVENT is an override for a recurring instance
}

// ParseICS parses a single ICS payload into a list of ParsedEvent plus the
// calendar name (X-WR-CALNAME), if any.
//
//   - It relies on the underlying library's VTIMEZONE/TZID handling to
//     construct proper time.Time values (with Location set).
//   - A missing DTEND is derived from DURATION, or equals DTSTART.
//   - It records RRULE/EXDATE/RECURRENCE-ID but does not expand recurrences;
//     expansion is done in expand.go.
func ParseICS(body []byte) ([]ParsedEvent, string, error) {
	if len(body) == 0 {
		return nil, "", errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, "", err
	}

	name := ""
	for _, p := range cal.CalendarProperties {
		if strings.EqualFold(p.IANAToken, "X-WR-CALNAME") {
			name = strings.TrimSpace(p.Value)
			break
		}
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "calendar", name, "event_count", len(events))
	return events, name, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if seqProp := ve.GetProperty(ical.ComponentPropertySequence); seqProp != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(seqProp.Value)); err == nil {
			out.Seq = n
		}
	}

	out.Summary = propValue(ve, ical.ComponentPropertySummary)
	out.Description = propValue(ve, ical.ComponentPropertyDescription)
	out.Location = propValue(ve, ical.ComponentPropertyLocation)
	out.URL = propValue(ve, "URL")
	out.Categories = propValue(ve, "CATEGORIES")

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return out, errors.New("missing DTSTART")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.Start = start

	// VALUE=DATE or no 'T' in the value -> all-day
	if params := dtStartProp.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
	}
	if !strings.Contains(dtStartProp.Value, "T") {
		out.AllDay = true
	}

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, err := ve.GetEndAt()
		if err != nil {
			return out, err
		}
		out.End = end
	case ve.GetProperty("DURATION") != nil:
		d, err := parseICSDuration(propValue(ve, "DURATION"))
		if err != nil {
			return out, err
		}
		out.End = out.Start.Add(d)
	case out.AllDay:
		out.End = out.Start.Add(24 * time.Hour)
	default:
		out.End = out.Start
	}
	if out.End.Before(out.Start) {
		return out, errors.New("DTEND before DTSTART")
	}

	if p := ve.GetProperty("ORGANIZER"); p != nil {
		out.Persons = append(out.Persons, personFromProp(p))
	}
	for _, p := range ve.GetProperties("ATTENDEE") {
		out.Persons = append(out.Persons, personFromProp(p))
	}

	// RRULE (we only keep raw string here; expansion will be in expand.go).
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE (can appear multiple times)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, out.Start.Location()); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID (overridden instance)
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value, out.Start.Location()); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// personFromProp turns an ORGANIZER/ATTENDEE property into a speaker. The
// CN parameter is the display name; the address keys the id so the same
// person across talks resolves to one entry.
func personFromProp(p *ical.IANAProperty) model.PersonRecord {
	addr := strings.TrimSpace(p.Value)
	name := ""
	if cns, ok := p.ICalParameters["CN"]; ok && len(cns) > 0 {
		name = strings.Trim(strings.TrimSpace(cns[0]), `"`)
	}
	if name == "" {
		name = strings.TrimPrefix(strings.TrimPrefix(addr, "mailto:"), "MAILTO:")
	}
	key := strings.ToLower(addr)
	if key == "" {
		key = "name:" + name
	}
	return model.PersonRecord{
		GUID: uuid.NewSHA1(personNamespace, []byte(key)),
		Name: name,
	}
}

// eventUUID maps a UID onto a UUID: UIDs that already are UUIDs (optionally
// followed by @host) are used as-is, anything else gets a name-based id.
func eventUUID(uid string) uuid.UUID {
	local := uid
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	if id, err := uuid.Parse(local); err == nil {
		return id
	}
	return uuid.NewSHA1(eventNamespace, []byte(uid))
}

// parseICSTime parses a basic ICS date/date-time string into time.Time.
// NOTE: This is a simplified helper for EXDATE/RECURRENCE-ID where we do
// not have full parameter context; floating values take loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if loc == nil {
		loc = time.Local
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, loc)
}

// parseICSDuration reads the RFC 5545 dur-value subset used in practice:
// [+-]P[nW][nD][T[nH][nM][nS]].
func parseICSDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(strings.ToUpper(v))
	neg := false
	switch {
	case strings.HasPrefix(v, "-"):
		neg = true
		v = v[1:]
	case strings.HasPrefix(v, "+"):
		v = v[1:]
	}
	if !strings.HasPrefix(v, "P") || len(v) < 3 {
		return 0, errors.New("invalid DURATION " + strconv.Quote(v))
	}
	v = v[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, errors.New("invalid DURATION " + strconv.Quote(v))
		}
		num = ""
		switch {
		case r == 'W' && !inTime:
			total += time.Duration(n) * 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			total += time.Duration(n) * 24 * time.Hour
		case r == 'H' && inTime:
			total += time.Duration(n) * time.Hour
		case r == 'M' && inTime:
			total += time.Duration(n) * time.Minute
		case r == 'S' && inTime:
			total += time.Duration(n) * time.Second
		default:
			return 0, errors.New("invalid DURATION " + strconv.Quote(v))
		}
	}
	if num != "" {
		return 0, errors.New("invalid DURATION " + strconv.Quote(v))
	}
	if neg {
		total = -total
	}
	return total, nil
}
