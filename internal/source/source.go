// Package source resolves a schedule location (file path or http(s) URL),
// reads the document and decodes it with the matching format decoder.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fahrplan/internal/frab"
	"fahrplan/internal/ics"
	appLog "fahrplan/internal/log"
	"fahrplan/internal/model"
)

// ErrUnknownFormat is returned when a document is neither schedule XML nor
// iCalendar.
var ErrUnknownFormat = errors.New("unknown schedule format")

// Format is a supported schedule document format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatICS
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatICS:
		return "ics"
	default:
		return "unknown"
	}
}

// Options configures Load.
type Options struct {
	// CacheDir holds the HTTP cache for remote schedules.
	CacheDir string
	// ICSHorizon bounds recurrence expansion for iCalendar documents.
	ICSHorizon time.Duration
}

// Load reads the schedule at location and decodes it.
func Load(ctx context.Context, location string, opts Options) (model.Import, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return model.Import{}, errors.New("source: no schedule given")
	}

	var (
		body []byte
		err  error
	)
	if IsRemote(location) {
		var res FetchResult
		res, err = NewFetcher(opts.CacheDir).Fetch(ctx, location)
		body = res.Body
	} else {
		body, err = os.ReadFile(location)
	}
	if err != nil {
		return model.Import{}, fmt.Errorf("source: could not open requested schedule: %w", err)
	}

	format := Detect(location, body)
	appLog.Info("schedule loaded", "format", format, "bytes", len(body), "remote", IsRemote(location))

	return Decode(format, body, opts)
}

// Decode runs the decoder for format.
func Decode(format Format, body []byte, opts Options) (model.Import, error) {
	var (
		imp model.Import
		err error
	)
	switch format {
	case FormatXML:
		imp, err = frab.ParseBytes(body)
	case FormatICS:
		horizon := opts.ICSHorizon
		if horizon <= 0 {
			horizon = 14 * 24 * time.Hour
		}
		imp, err = ics.Decode(body, horizon)
	default:
		return model.Import{}, fmt.Errorf("source: %w", ErrUnknownFormat)
	}
	if err != nil {
		return model.Import{}, fmt.Errorf("source: could not parse schedule: %w", err)
	}
	return imp, nil
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Detect sniffs the document content first and falls back to the file
// extension of location.
func Detect(location string, body []byte) Format {
	head := bytes.TrimSpace(body)
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	switch {
	case bytes.HasPrefix(bytes.ToUpper(head[:min(len(head), 15)]), []byte("BEGIN:VCALENDAR")):
		return FormatICS
	case bytes.HasPrefix(head, []byte("<")):
		return FormatXML
	}

	path := location
	if IsRemote(location) {
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML
	case ".ics", ".ical", ".ifb":
		return FormatICS
	}
	return FormatUnknown
}
