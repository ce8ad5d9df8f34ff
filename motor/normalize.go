package motor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pb33f/harsize/motor/model"
)

// ErrMalformedEntry is wrapped by every normalization failure.
var ErrMalformedEntry = errors.New("malformed HAR entry")

// MissingFieldError reports a required entry field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrMalformedEntry, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMalformedEntry
}

// BytesPerKB is the divisor for every size reported. All sizes are kilobytes.
const BytesPerKB = 1024.0

// offset-less timestamps are read as UTC
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// basicOffsetLayout accepts ISO 8601 offsets without a colon, e.g. +0200.
const basicOffsetLayout = "2006-01-02T15:04:05.999999999-0700"

// BytesToKB converts a raw byte count to kilobytes, unknown (negative) counts become 0.
func BytesToKB(bytes int64) float64 {
	if bytes <= 0 {
		return 0
	}
	return float64(bytes) / BytesPerKB
}

// NormalizedEntry is one HAR entry reduced to the values the size report aggregates.
type NormalizedEntry struct {
	URL         string
	Time        float64 // ms
	Status      int
	MimeType    string
	BodySize    float64 // KB
	HeadersSize float64 // KB
	TotalSize   float64 // KB, BodySize + HeadersSize
	Started     time.Time
}

// NormalizeMimeType strips parameters (everything from the first ';') from a content type.
func NormalizeMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// ParseTimestamp reads a HAR startedDateTime.
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return t, nil
	}
	if t, berr := time.Parse(basicOffsetLayout, value); berr == nil {
		return t, nil
	}
	if t, lerr := time.ParseInLocation(localTimestampLayout, value, time.UTC); lerr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: bad startedDateTime %q: %v", ErrMalformedEntry, value, err)
}

// Normalize converts a raw entry into a NormalizedEntry. Sizes are converted here and nowhere else.
func Normalize(raw model.RawEntry) (NormalizedEntry, error) {
	url, ok := raw.URL()
	if !ok {
		return NormalizedEntry{}, &MissingFieldError{Field: "request.url"}
	}
	status, ok := raw.Status()
	if !ok {
		return NormalizedEntry{}, &MissingFieldError{Field: "response.status"}
	}
	mimeType, ok := raw.MimeType()
	if !ok {
		return NormalizedEntry{}, &MissingFieldError{Field: "response.content.mimeType"}
	}
	if raw.StartedDateTime == nil {
		return NormalizedEntry{}, &MissingFieldError{Field: "startedDateTime"}
	}
	started, err := ParseTimestamp(*raw.StartedDateTime)
	if err != nil {
		return NormalizedEntry{}, err
	}

	elapsed := raw.Elapsed()
	if elapsed < 0 {
		elapsed = 0
	}

	body, headers := raw.Response.Sizes()
	entry := NormalizedEntry{
		URL:         url,
		Time:        elapsed,
		Status:      status,
		MimeType:    NormalizeMimeType(mimeType),
		BodySize:    BytesToKB(body),
		HeadersSize: BytesToKB(headers),
		Started:     started,
	}
	entry.TotalSize = entry.BodySize + entry.HeadersSize
	return entry, nil
}

// NormalizeAll normalizes every entry, skipping the malformed ones and counting them.
func NormalizeAll(entries []model.RawEntry, logger *slog.Logger) ([]NormalizedEntry, int) {
	if logger == nil {
		logger = slog.Default()
	}

	normalized := make([]NormalizedEntry, 0, len(entries))
	skipped := 0
	for i := range entries {
		entry, err := Normalize(entries[i])
		if err != nil {
			skipped++
			logger.Debug("skipping HAR entry", "index", i, "error", err)
			continue
		}
		normalized = append(normalized, entry)
	}
	return normalized, skipped
}
