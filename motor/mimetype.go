package motor

// PrimaryMimeType is the content type of the page document itself.
const PrimaryMimeType = "text/html"

// MimetypeGroup holds the entries of a page that share a normalized content type.
type MimetypeGroup struct {
	MimeType  string
	Entries   []NormalizedEntry // insertion order
	TotalSize float64           // KB
	TotalTime float64           // ms
}

func newMimetypeGroup(mimeType string) *MimetypeGroup {
	return &MimetypeGroup{
		MimeType: mimeType,
		Entries:  make([]NormalizedEntry, 0, 4),
	}
}

func (g *MimetypeGroup) add(entry NormalizedEntry) {
	g.Entries = append(g.Entries, entry)
	g.TotalSize += entry.TotalSize
	g.TotalTime += entry.Time
}

// Count is the number of entries in the group.
func (g *MimetypeGroup) Count() int {
	return len(g.Entries)
}

// AverageSize is the mean entry size in KB.
func (g *MimetypeGroup) AverageSize() float64 {
	if len(g.Entries) == 0 {
		return 0
	}
	return g.TotalSize / float64(len(g.Entries))
}

// AverageTime is the mean entry time in ms.
func (g *MimetypeGroup) AverageTime() float64 {
	if len(g.Entries) == 0 {
		return 0
	}
	return g.TotalTime / float64(len(g.Entries))
}

// Percentage is the share of pageTotal taken by this group, 0..100.
func (g *MimetypeGroup) Percentage(pageTotal float64) float64 {
	if pageTotal <= 0 {
		return 0
	}
	return g.TotalSize / pageTotal * 100
}

func (g *MimetypeGroup) clone() *MimetypeGroup {
	c := *g
	c.Entries = make([]NormalizedEntry, len(g.Entries))
	copy(c.Entries, g.Entries)
	return &c
}

// Aggregation is the mimetype breakdown of one page.
type Aggregation struct {
	Groups    map[string]*MimetypeGroup
	Order     []string // mimetypes in first-seen order
	TotalSize float64  // KB, sum over groups
}

// Aggregate groups normalized entries by mimetype. Zero entries yield an empty aggregation.
func Aggregate(entries []NormalizedEntry) *Aggregation {
	agg := &Aggregation{
		Groups: make(map[string]*MimetypeGroup),
		Order:  make([]string, 0),
	}

	for _, entry := range entries {
		group, ok := agg.Groups[entry.MimeType]
		if !ok {
			group = newMimetypeGroup(entry.MimeType)
			agg.Groups[entry.MimeType] = group
			agg.Order = append(agg.Order, entry.MimeType)
		}
		group.add(entry)
	}

	for _, mimeType := range agg.Order {
		agg.TotalSize += agg.Groups[mimeType].TotalSize
	}

	return agg
}
