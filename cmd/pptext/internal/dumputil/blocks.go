package dumputil

import (
	"fmt"
	"strconv"
	"strings"

	"hslf/text"
	"hslf/textprop"
	"hslf/utils/debug"
)

// DumpBlocks renders text blocks with their paragraph and character
// style spans.
func DumpBlocks(blocks []*text.Block) string {
	tw := debug.NewTreeWriter(0)
	for i, b := range blocks {
		tw.Line(0, "block %d: runType=%d index=%d", i, b.RunType(), b.Index())
		for j, p := range b.Paragraphs() {
			tw.Line(1, "paragraph %d: indent=%d %s", j, p.IndentLevel(), formatCollection(p.ParagraphStyle()))
			for k, r := range p.Runs() {
				tw.Text(2, fmt.Sprintf("run %d %s", k, formatCollection(r.CharacterStyle())), r.RawText())
			}
		}
	}
	return tw.String()
}

func formatCollection(c *textprop.Collection) string {
	if c == nil {
		return "(no style)"
	}
	parts := make([]string, 0, len(c.Props())+1)
	parts = append(parts, "cover="+strconv.Itoa(c.CharactersCovered()))
	for _, p := range c.Props() {
		if p.IsBitMask() {
			parts = append(parts, fmt.Sprintf("%s=%#x", p.Name(), p.Value()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", p.Name(), p.Value()))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// DumpText renders plain text of all blocks, blocks separated by a blank
// line.
func DumpText(blocks []*text.Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.Text())
		sb.WriteString("\n")
	}
	return sb.String()
}
