// Package text implements the text engine of the legacy presentation
// format: it reconstructs paragraphs and styled runs from a flat record
// sequence, lets callers edit them, and serializes the edited model back
// into a byte-compatible record sequence, keeping text, per-character
// styling, per-paragraph styling and auxiliary size records consistent.
package text

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"hslf/record"
)

// Error classes of the engine.
var (
	// ErrStructure marks fatal internal-consistency violations, like a
	// paragraph without runs or an unresolvable outline reference.
	ErrStructure = errors.New("text: structural violation")
	// ErrMalformed marks input records whose style coverage does not
	// agree with the actual text. Reported, never silently patched.
	ErrMalformed = errors.New("text: malformed input")
	// ErrWrite marks a failed write-through of the host container. The
	// whole save aborts, there is no partial-write recovery.
	ErrWrite = errors.New("text: write-through failed")
)

// Block is one text block: the ordered paragraphs sharing one header
// record and one underlying text storage record. Blocks are shared by
// pointer, so a block resolved through an outline reference sees edits
// made through any alias.
type Block struct {
	host  *record.Container
	tb    *record.Textbox // non-nil when the host caches a flattened byte form
	paras []*Paragraph
	log   *zap.Logger
}

// Paragraphs returns the ordered, non-empty paragraph list.
func (b *Block) Paragraphs() []*Paragraph { return b.paras }

// Host returns the record container holding this block's records.
func (b *Block) Host() *record.Container { return b.host }

// SupplySheet attaches the sheet the block belongs to, a non-owning back
// reference used for master style fallback.
func (b *Block) SupplySheet(sheet Sheet) {
	for _, p := range b.paras {
		p.sheet = sheet
	}
}

// RunType returns the text type of the block's header record.
func (b *Block) RunType() int {
	if len(b.paras) == 0 {
		return -1
	}
	return b.paras[0].RunType()
}

// Index returns the block's position in its slide-list container, or -1
// for drawing-based blocks.
func (b *Block) Index() int {
	if len(b.paras) == 0 || b.paras[0].header == nil {
		return -1
	}
	return b.paras[0].header.Index()
}

// RawText returns the concatenated run text of all paragraphs, in the
// internal form using \r as the line separator.
func (b *Block) RawText() string {
	var sb strings.Builder
	for _, p := range b.paras {
		for _, r := range p.runs {
			sb.WriteString(r.text)
		}
	}
	return sb.String()
}

// Text returns the block text in external form: \r becomes \n and the
// vertical-tab control character is mapped according to the block type.
func (b *Block) Text() string {
	return toExternalString(b.RawText(), b.RunType())
}

func (b *Block) logger() *zap.Logger {
	if b.log != nil {
		return b.log
	}
	return zap.NewNop()
}

// toInternalString converts external line breaks to the internal \r
// convention.
func toInternalString(s string) string {
	return strings.NewReplacer("\r\n", "\r", "\n", "\r").Replace(s)
}

// toExternalString converts raw block text to the external form. The
// vertical tab acts as a line break in title blocks and as a blank
// everywhere else.
func toExternalString(rawText string, runType int) string {
	text := strings.ReplaceAll(rawText, "\r", "\n")
	switch runType {
	case -1, record.TextTypeTitle, record.TextTypeCenterTitle:
		return strings.ReplaceAll(text, "\x0b", "\n")
	default:
		return strings.ReplaceAll(text, "\x0b", " ")
	}
}

// splitAfterCR splits raw text immediately after each \r, keeping the
// separator on the preceding segment. Empty input yields one empty
// segment, a trailing separator does not create a trailing empty one.
func splitAfterCR(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) || len(out) == 0 {
		out = append(out, s[start:])
	}
	return out
}
