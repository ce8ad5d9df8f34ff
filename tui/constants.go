package tui

const (
	tableVerticalPadding = 4
	minURLColumnWidth    = 20
	maxURLColumnWidth    = 100
	borderPadding        = 8

	entriesColumnWidth  = 8
	sizeColumnWidth     = 12
	timeColumnWidth     = 12
	mimeTypeColumnWidth = 28
	percentColumnWidth  = 8
)

// resource timings in ms
const (
	moderateThreshold = 500.0
	slowThreshold     = 2000.0
)
