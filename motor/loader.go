package motor

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pb33f/harsize/motor/model"
)

const (
	keyLog     = "log"
	keyPages   = "pages"
	keyEntries = "entries"
)

// LoaderStats describes the last document a Loader read.
type LoaderStats struct {
	Entries   int
	Skipped   int
	BytesRead int64
	LoadTime  time.Duration
}

// Loader streams a HAR document, decoding log.pages and log.entries and skipping
// everything else. Entries that are valid JSON but do not fit the entry shape are
// counted and skipped; a broken JSON stream fails the load.
type Loader struct {
	logger *slog.Logger
	doc    *model.Document
	hash   *xxhash.Digest
	stats  LoaderStats
}

// NewLoader creates a loader that logs through logger (slog.Default() when nil).
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadHAR reads a HAR document with a default loader.
func LoadHAR(reader io.Reader) (*model.Document, error) {
	return NewLoader(nil).Load(reader)
}

// LoadHARFile reads a HAR document from disk.
func LoadHARFile(path string) (*model.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open har file: %w", err)
	}
	defer file.Close()

	doc, err := LoadHAR(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return doc, nil
}

// Load reads one document. A Loader may be reused, but not concurrently.
func (l *Loader) Load(reader io.Reader) (*model.Document, error) {
	startTime := time.Now()

	l.doc = model.NewDocument()
	l.hash = xxhash.New()
	counting := &byteCountingReader{reader: reader, hash: l.hash}

	if err := l.parseHAR(newHARDecoder(counting)); err != nil {
		return nil, fmt.Errorf("failed to parse har: %w", err)
	}

	// drain trailing whitespace so the hash covers the whole input
	if _, err := io.Copy(io.Discard, counting); err != nil {
		return nil, fmt.Errorf("failed to read har: %w", err)
	}

	l.doc.Hash = fmt.Sprintf("%x", l.hash.Sum64())
	l.doc.Size = counting.n
	l.stats = LoaderStats{
		Entries:   len(l.doc.Entries),
		Skipped:   l.doc.Skipped,
		BytesRead: counting.n,
		LoadTime:  time.Since(startTime),
	}

	l.logger.Debug("har loaded",
		"entries", l.stats.Entries,
		"skipped", l.stats.Skipped,
		"pages", len(l.doc.Pages),
		"bytes", l.stats.BytesRead,
		"hash", l.doc.Hash,
		"load_time", l.stats.LoadTime)

	return l.doc, nil
}

// Stats returns statistics for the last load.
func (l *Loader) Stats() LoaderStats {
	return l.stats
}

func (l *Loader) parseHAR(decoder HARDecoder) error {
	ok, err := helper.expectDelim(decoder, json.Delim('{'))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected a json object at the top level")
	}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}

		key, _ := token.(string)
		switch key {
		case keyLog:
			if err := l.parseLog(decoder); err != nil {
				return err
			}
		default:
			if err := helper.skipValue(decoder); err != nil {
				return err
			}
		}
	}

	return nil
}

func (l *Loader) parseLog(decoder HARDecoder) error {
	ok, err := helper.expectDelim(decoder, json.Delim('{'))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected log to be an object")
	}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}

		key, _ := token.(string)
		switch key {
		case keyPages:
			if err := l.parsePages(decoder); err != nil {
				return err
			}
		case keyEntries:
			if err := l.parseEntries(decoder); err != nil {
				return err
			}
		default:
			if err := helper.skipValue(decoder); err != nil {
				return err
			}
		}
	}

	// closing brace of log
	_, err = decoder.Token()
	return err
}

func (l *Loader) parsePages(decoder HARDecoder) error {
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return err
	}

	var pages []model.RawPage
	if err := json.Unmarshal(raw, &pages); err != nil {
		// without usable pages the load time is simply unavailable
		l.logger.Warn("ignoring malformed log.pages", "error", err)
		return nil
	}
	l.doc.Pages = append(l.doc.Pages, pages...)
	return nil
}

func (l *Loader) parseEntries(decoder HARDecoder) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if token == nil {
		// "entries": null is an empty page
		return nil
	}
	if token != json.Delim('[') {
		return fmt.Errorf("expected entries to be an array, got %v", token)
	}

	entryIndex := 0
	for decoder.More() {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return fmt.Errorf("failed to read entry %d: %w", entryIndex, err)
		}

		var entry model.RawEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			l.doc.Skipped++
			l.logger.Debug("skipping undecodable HAR entry", "index", entryIndex, "error", err)
		} else {
			l.doc.Entries = append(l.doc.Entries, entry)
		}
		entryIndex++
	}

	// closing bracket of entries
	_, err = decoder.Token()
	return err
}

type byteCountingReader struct {
	reader io.Reader
	hash   *xxhash.Digest
	n      int64
}

func (r *byteCountingReader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	if n > 0 {
		r.n += int64(n)
		if r.hash != nil {
			r.hash.Write(p[:n])
		}
	}
	return n, err
}
