// Package frab decodes conference schedule XML documents
// (schedule > day > room > event) into import records.
//
// Note that anytime an id is mentioned, the guid attribute is meant, not the
// numeric id one. The numeric id is only used to derive a stable guid when a
// document lacks one.
package frab

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "fahrplan/internal/log"
	"fahrplan/internal/model"
)

// Namespaces for name-based ids of documents without guid attributes.
var (
	eventNamespace  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fahrplan:event"))
	personNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fahrplan:person"))
)

type xmlSchedule struct {
	XMLName    xml.Name      `xml:"schedule"`
	Conference xmlConference `xml:"conference"`
	Days       []xmlDay      `xml:"day"`
}

type xmlConference struct {
	Acronym string     `xml:"acronym"`
	Title   string     `xml:"title"`
	Start   string     `xml:"start"`
	End     string     `xml:"end"`
	URL     string     `xml:"url"`
	Tracks  []xmlTrack `xml:"track"`
}

type xmlTrack struct {
	Name  string `xml:"name,attr"`
	Color string `xml:"color,attr"`
}

type xmlDay struct {
	Index int       `xml:"index,attr"`
	Date  string    `xml:"date,attr"`
	Rooms []xmlRoom `xml:"room"`
}

type xmlRoom struct {
	GUID   string     `xml:"guid,attr"`
	Name   string     `xml:"name,attr"`
	Events []xmlEvent `xml:"event"`
}

type xmlEvent struct {
	GUID string `xml:"guid,attr"`
	ID   string `xml:"id,attr"`

	Date     string `xml:"date"`
	Start    string `xml:"start"`
	Duration string `xml:"duration"`

	Room        string  `xml:"room"`
	Slug        string  `xml:"slug"`
	URL         string  `xml:"url"`
	Title       string  `xml:"title"`
	Subtitle    string  `xml:"subtitle"`
	Track       string  `xml:"track"`
	Type        string  `xml:"type"`
	Language    string  `xml:"language"`
	Abstract    string  `xml:"abstract"`
	Description string  `xml:"description"`
	FeedbackURL *string `xml:"feedback_url"`

	Persons []xmlPerson `xml:"persons>person"`
	Links   []xmlLink   `xml:"links>link"`
}

type xmlPerson struct {
	GUID string `xml:"guid,attr"`
	ID   string `xml:"id,attr"`
	Name string `xml:",chardata"`
}

type xmlLink struct {
	Href  string `xml:"href,attr"`
	Label string `xml:",chardata"`
}

// Parse decodes a schedule XML document. Events are returned in document
// order: days, then rooms, then events. The first event that cannot be
// decoded fails the whole document.
func Parse(r io.Reader) (model.Import, error) {
	var raw xmlSchedule
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return model.Import{}, fmt.Errorf("frab: decode: %w", err)
	}

	imp := model.Import{
		Conference: model.Conference{
			Acronym: strings.TrimSpace(raw.Conference.Acronym),
			Title:   strings.TrimSpace(raw.Conference.Title),
			URL:     strings.TrimSpace(raw.Conference.URL),
		},
	}
	// Conference bounds are informational; older documents carry bare dates.
	imp.Conference.Start, _ = parseConferenceTime(raw.Conference.Start)
	imp.Conference.End, _ = parseConferenceTime(raw.Conference.End)

	for _, day := range raw.Days {
		for _, room := range day.Rooms {
			for _, ev := range room.Events {
				rec, err := realizeEvent(ev, room.Name)
				if err != nil {
					return model.Import{}, fmt.Errorf("frab: event %s (%q) in %q: %w",
						eventRef(ev), strings.TrimSpace(ev.Title), room.Name, err)
				}
				imp.Events = append(imp.Events, rec)
			}
		}
	}

	appLog.Info("frab parse completed",
		"conference", imp.Conference.Acronym,
		"days", len(raw.Days),
		"event_count", len(imp.Events),
	)
	return imp, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(body []byte) (model.Import, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return model.Import{}, errors.New("frab: empty document")
	}
	return Parse(bytes.NewReader(body))
}

func realizeEvent(ev xmlEvent, roomName string) (model.EventRecord, error) {
	guid, err := eventGUID(ev)
	if err != nil {
		return model.EventRecord{}, err
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(ev.Date))
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("date: %w", err)
	}

	dur, err := ParseDuration(ev.Duration)
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("duration: %w", err)
	}

	room := strings.TrimSpace(ev.Room)
	if room == "" {
		room = roomName
	}

	rec := model.EventRecord{
		GUID:        guid,
		Start:       start,
		Duration:    dur,
		Title:       strings.TrimSpace(ev.Title),
		Subtitle:    strings.TrimSpace(ev.Subtitle),
		Abstract:    strings.TrimSpace(ev.Abstract),
		Description: strings.TrimSpace(ev.Description),
		Room:        room,
		Track:       strings.TrimSpace(ev.Track),
		Type:        strings.TrimSpace(ev.Type),
		Language:    strings.TrimSpace(ev.Language),
		URL:         strings.TrimSpace(ev.URL),
	}

	if ev.FeedbackURL != nil {
		if v := strings.TrimSpace(*ev.FeedbackURL); v != "" {
			rec.FeedbackURL = &v
		}
	}

	for _, l := range ev.Links {
		href := strings.TrimSpace(l.Href)
		label := strings.TrimSpace(l.Label)
		if label == "" {
			label = href
		}
		rec.Links = append(rec.Links, model.LinkRecord{Label: label, URL: href})
	}

	for _, p := range ev.Persons {
		rec.Persons = append(rec.Persons, model.PersonRecord{
			GUID: personGUID(p),
			Name: strings.TrimSpace(p.Name),
		})
	}

	return rec, nil
}

// eventRef names an event in errors by guid, falling back to its id.
func eventRef(ev xmlEvent) string {
	if g := strings.TrimSpace(ev.GUID); g != "" {
		return g
	}
	if id := strings.TrimSpace(ev.ID); id != "" {
		return "id=" + id
	}
	return "<unnamed>"
}

func eventGUID(ev xmlEvent) (uuid.UUID, error) {
	if g := strings.TrimSpace(ev.GUID); g != "" {
		id, err := uuid.Parse(g)
		if err != nil {
			return uuid.Nil, fmt.Errorf("guid: %w", err)
		}
		return id, nil
	}
	if id := strings.TrimSpace(ev.ID); id != "" {
		return uuid.NewSHA1(eventNamespace, []byte(id)), nil
	}
	return uuid.Nil, errors.New("event has neither guid nor id")
}

func personGUID(p xmlPerson) uuid.UUID {
	if g := strings.TrimSpace(p.GUID); g != "" {
		if id, err := uuid.Parse(g); err == nil {
			return id
		}
	}
	if id := strings.TrimSpace(p.ID); id != "" {
		return uuid.NewSHA1(personNamespace, []byte("id:"+id))
	}
	return uuid.NewSHA1(personNamespace, []byte("name:"+strings.TrimSpace(p.Name)))
}

// ParseDuration reads "HH:MM" or "HH:MM:SS" as used by the <duration>
// element. Hours may exceed 24.
func ParseDuration(v string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}

	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

func parseConferenceTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
