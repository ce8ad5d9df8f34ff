package hargen

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pb33f/harhar"
)

// TimestampLayout is the startedDateTime format browsers write.
const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

// GenerateOptions configures page HAR generation
type GenerateOptions struct {
	EntryCount     int       // valid entries, the first is always the html document
	PageURL        string    // url of the page (default: https://www.example.com/)
	PageID         string    // log.pages[0].id (default: page_1)
	MalformedCount int       // extra entries missing required fields or not shaped like an entry
	OmitPage       bool      // leave out log.pages, so no onLoad is recorded
	DictionaryPath string    // path to word dictionary (default: /usr/share/dict/words)
	MaxJSONDepth   int       // max nesting level of json bodies (default: 3)
	MaxJSONNodes   int       // max nodes per level (default: 10)
	Seed           int64     // random seed for reproducibility (0 = use time)
	FatMode        bool      // embed base64 bodies sized to match bodySize
	StartTime      time.Time // page start (default: now)
}

// DefaultGenerateOptions provides sensible defaults
var DefaultGenerateOptions = GenerateOptions{
	EntryCount:     10,
	PageURL:        "https://www.example.com/",
	PageID:         "page_1",
	DictionaryPath: "/usr/share/dict/words",
	MaxJSONDepth:   3,
	MaxJSONNodes:   10,
}

// GenerateResult describes a generated har file
type GenerateResult struct {
	HARFilePath  string // path to generated har file
	PageID       string // empty when the page was omitted
	TotalEntries int    // valid entries written
	Malformed    int    // malformed entries written
}

// Generate creates a page har in a temp file
func Generate(opts GenerateOptions) (*GenerateResult, error) {
	tmpFile, err := os.CreateTemp("", "hargen-*.har")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmpFile.Name()
	tmpFile.Close()

	result, err := GenerateToFile(path, opts)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return result, nil
}

// GenerateInMemory creates a page har without writing to disk. Malformed
// entries cannot be expressed as harhar values and are left out.
func GenerateInMemory(opts GenerateOptions) (*harhar.HAR, error) {
	har, _, err := generate(opts)
	return har, err
}

// GenerateToFile generates a page har and writes it to a specific file path
func GenerateToFile(path string, opts GenerateOptions) (*GenerateResult, error) {
	har, malformed, err := generate(opts)
	if err != nil {
		return nil, err
	}

	// ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	doc, err := newRawDocument(har, malformed)
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to write har: %w", err)
	}

	result := &GenerateResult{
		HARFilePath:  path,
		TotalEntries: len(har.Log.Entries),
		Malformed:    len(malformed),
	}
	if len(har.Log.Pages) > 0 {
		result.PageID = har.Log.Pages[0].ID
	}
	return result, nil
}

func applyDefaults(opts *GenerateOptions) {
	if opts.PageURL == "" {
		opts.PageURL = DefaultGenerateOptions.PageURL
	}
	if opts.PageID == "" {
		opts.PageID = DefaultGenerateOptions.PageID
	}
	if opts.DictionaryPath == "" {
		opts.DictionaryPath = DefaultGenerateOptions.DictionaryPath
	}
	if opts.MaxJSONDepth == 0 {
		opts.MaxJSONDepth = DefaultGenerateOptions.MaxJSONDepth
	}
	if opts.MaxJSONNodes == 0 {
		opts.MaxJSONNodes = DefaultGenerateOptions.MaxJSONNodes
	}
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now().Truncate(time.Millisecond)
	}
}

func generate(opts GenerateOptions) (*harhar.HAR, []json.RawMessage, error) {
	// honor zero entrycount for empty page testing
	applyDefaults(&opts)

	// create local rng (avoid mutating global rand)
	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	dict, err := LoadDictionary(opts.DictionaryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dictionary: %w", err)
	}

	jsonGen := NewJSONGenerator(dict, opts.MaxJSONDepth, opts.MaxJSONNodes, rng)
	entryGen := NewEntryGenerator(dict, jsonGen, rng, opts.PageURL)
	entryGen.SetFatMode(opts.FatMode)

	pageRef := opts.PageID
	if opts.OmitPage {
		pageRef = ""
	}

	entries := make([]harhar.Entry, 0, opts.EntryCount)
	offset := 0.0
	span := 0.0
	for i := 0; i < opts.EntryCount; i++ {
		started := opts.StartTime.Add(time.Duration(offset * float64(time.Millisecond)))
		entry := entryGen.GenerateEntry(i, started, pageRef)
		entries = append(entries, *entry)

		if end := offset + entry.Time; end > span {
			span = end
		}
		// resources start while earlier ones are still in flight
		offset += float64(rng.Intn(40))
	}

	malformed := make([]json.RawMessage, 0, opts.MalformedCount)
	for i := 0; i < opts.MalformedCount; i++ {
		malformed = append(malformed, entryGen.GenerateMalformed(i, opts.StartTime))
	}

	har := &harhar.HAR{
		Log: harhar.Log{
			Version: "1.2",
			Creator: harhar.Creator{
				Name:    "hargen",
				Version: "1.0.0",
			},
			Entries: entries,
		},
	}

	if !opts.OmitPage {
		page := harhar.Page{
			Start: opts.StartTime.Format(TimestampLayout),
			ID:    opts.PageID,
			Title: opts.PageURL,
		}
		if span > 0 {
			page.PageTimings.OnLoad = float64(int(span)) + 1
			page.PageTimings.OnContentLoad = float64(int(span * 0.6))
		}
		har.Log.Pages = []harhar.Page{page}
	}

	return har, malformed, nil
}

// rawDocument mirrors the har layout with entries kept raw so malformed
// ones can sit alongside real ones.
type rawDocument struct {
	Log rawLog `json:"log"`
}

type rawLog struct {
	Version string            `json:"version"`
	Creator harhar.Creator    `json:"creator"`
	Pages   []harhar.Page     `json:"pages,omitempty"`
	Entries []json.RawMessage `json:"entries"`
}

func newRawDocument(har *harhar.HAR, malformed []json.RawMessage) (*rawDocument, error) {
	entries := make([]json.RawMessage, 0, len(har.Log.Entries)+len(malformed))
	for i := range har.Log.Entries {
		raw, err := json.Marshal(&har.Log.Entries[i])
		if err != nil {
			return nil, fmt.Errorf("failed to encode entry %d: %w", i, err)
		}
		entries = append(entries, raw)
	}
	entries = append(entries, malformed...)

	return &rawDocument{
		Log: rawLog{
			Version: har.Log.Version,
			Creator: har.Log.Creator,
			Pages:   har.Log.Pages,
			Entries: entries,
		},
	}, nil
}
