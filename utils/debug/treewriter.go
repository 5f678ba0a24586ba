package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter renders the indented listings produced by the inspection
// commands: one record or style span per line, two spaces per level.
// Lines deeper than the configured limit are dropped.
type TreeWriter struct {
	w        *strings.Builder
	maxDepth int
}

// NewTreeWriter creates a writer capped at maxDepth levels, 0 means no
// limit.
func NewTreeWriter(maxDepth int) *TreeWriter {
	return &TreeWriter{
		w:        &strings.Builder{},
		maxDepth: maxDepth,
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

// Visible reports whether lines at depth are within the depth limit, so
// callers can stop descending into children early.
func (tw *TreeWriter) Visible(depth int) bool {
	return tw.maxDepth <= 0 || depth < tw.maxDepth
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	if !tw.Visible(depth) {
		return
	}
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Text writes a labeled raw text value. Values are quoted so line
// separators and other control characters in paragraph text stay
// visible, empty values stay empty to tell them from missing text.
func (tw *TreeWriter) Text(depth int, label, value string) {
	if !tw.Visible(depth) {
		return
	}
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	if value != "" {
		value = strconv.Quote(value)
	}
	tw.w.WriteString(value)
	tw.w.WriteByte('\n')
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}
