package text

import (
	"fmt"

	"go.uber.org/zap"

	"hslf/record"
	"hslf/textprop"
)

// ParseRecords scans the container's children for text blocks: each block
// starts at a TextHeaderAtom and ends right before the next one. The
// records of a block are bucketed by subtype, the raw text is split into
// paragraphs after every \r, and the pre-existing style spans are
// distributed across the resulting paragraphs and runs proportionally to
// their character counts.
func ParseRecords(host *record.Container, log *zap.Logger) ([]*Block, error) {
	return parseBlocks(host, nil, log)
}

func parseBlocks(host *record.Container, tb *record.Textbox, log *zap.Logger) ([]*Block, error) {
	if log == nil {
		log = zap.NewNop()
	}
	records := host.Children()

	var blocks []*Block
	idx := 0
	for slwtIndex := 0; idx < len(records); slwtIndex++ {
		var (
			header  *record.TextHeaderAtom
			tbytes  *record.TextBytesAtom
			tchars  *record.TextCharsAtom
			ruler   *record.TextRulerAtom
			indents *record.MasterTextPropAtom
		)
		for _, r := range blockRecords(records, &idx, nil, log) {
			switch a := r.(type) {
			case *record.TextHeaderAtom:
				header = a
			case *record.TextBytesAtom:
				tbytes = a
			case *record.TextCharsAtom:
				tchars = a
			case *record.TextRulerAtom:
				ruler = a
			case *record.MasterTextPropAtom:
				indents = a
			}
			// the style atom is intentionally not picked up here, it may sit
			// past the bucket boundary; see findStyleAtom
		}
		if header == nil {
			break
		}

		if host.RecType() == record.TypeSlideListWithText {
			// blocks found in the drawing layer are not indexed
			header.SetIndex(slwtIndex)
		}

		if tbytes == nil && tchars == nil {
			// no text storage record; synthesize an empty one, it is spliced
			// into the tree on the next save
			tbytes = record.NewTextBytesAtom()
			log.Info("bytes nor chars atom doesn't exist, creating dummy record for later saving")
		}

		rawText := ""
		if tchars != nil {
			rawText = tchars.Text()
		} else {
			rawText = tbytes.Text()
		}

		styles, err := findStyleAtom(host, header, charLen(rawText), log)
		if err != nil {
			return nil, err
		}

		block := &Block{host: host, tb: tb, log: log}
		for _, seg := range splitAfterCR(rawText) {
			para := newParagraph(header, tbytes, tchars)
			para.block = block
			para.ruler = ruler
			para.style.UpdateTextSize(charLen(seg))

			run := newRun(para)
			run.text = seg
			para.runs = append(para.runs, run)
			block.paras = append(block.paras, para)
		}

		if err := applyCharacterStyles(block.paras, styles.CharacterStyles()); err != nil {
			return nil, err
		}
		if err := applyParagraphStyles(block.paras, styles.ParagraphStyles()); err != nil {
			return nil, err
		}
		if indents != nil {
			if err := applyParagraphIndents(block.paras, indents.Indents()); err != nil {
				return nil, err
			}
		}
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		log.Debug("no text records found")
	}
	return blocks, nil
}

// ParseTextbox builds the text block of one drawing-layer textbox. A
// textbox holding an outline reference borrows the paragraphs of the
// sheet block with the matching index instead of owning records of its
// own; edits through the returned block are then visible on the sheet.
func ParseTextbox(tb *record.Textbox, sheet Sheet, log *zap.Logger) (*Block, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var ota *record.OutlineTextRefAtom
	for _, r := range tb.Children() {
		if a, ok := r.(*record.OutlineTextRefAtom); ok {
			ota = a
			break
		}
	}

	var blk *Block
	if ota != nil {
		// an outline based textbox has no further text records of its own
		if sheet == nil {
			return nil, fmt.Errorf("%w: outline reference cannot be resolved without a sheet", ErrStructure)
		}
		idx := ota.TextIndex()
		var matches []*Block
		for _, sb := range sheet.TextBlocks() {
			ridx := sb.Index()
			if ridx < 0 {
				continue
			}
			if ridx > idx {
				break
			}
			if ridx == idx {
				matches = append(matches, sb)
			}
		}
		switch len(matches) {
		case 0:
		case 1:
			blk = matches[0]
		default:
			// a deck can repeat an index across lists; present the
			// concatenated paragraphs through a fresh block so the
			// sheet's own blocks stay untouched
			blk = &Block{host: matches[0].host, tb: matches[0].tb, log: log}
			for _, m := range matches {
				blk.paras = append(blk.paras, m.paras...)
			}
		}
		if blk == nil {
			// some decks legitimately carry dangling references
			log.Warn("text block not found for outline reference", zap.Int("index", idx))
			return nil, nil
		}
	} else {
		if sheet != nil {
			// prefer the sheet's block so every alias shares paragraphs
			for _, sb := range sheet.TextBlocks() {
				if sb.tb == tb {
					blk = sb
					break
				}
			}
		}
		if blk == nil {
			blocks, err := parseBlocks(&tb.Container, tb, log)
			if err != nil {
				return nil, err
			}
			switch len(blocks) {
			case 0:
			case 1:
				blk = blocks[0]
			default:
				return nil, fmt.Errorf("%w: textbox contains more than one list of paragraphs", ErrStructure)
			}
		}
	}

	if blk != nil && sheet != nil {
		blk.SupplySheet(sheet)
	}
	return blk, nil
}

// blockRecords returns the records of one block: it scans forward from
// *idx to a TextHeaderAtom (or the specific header when given) and
// collects everything up to the next header. *idx is advanced past the
// returned records.
func blockRecords(records []record.Record, idx *int, header *record.TextHeaderAtom, log *zap.Logger) []record.Record {
	for ; *idx < len(records); *idx++ {
		if h, ok := records[*idx].(*record.TextHeaderAtom); ok && (header == nil || h == header) {
			break
		}
	}
	if *idx >= len(records) {
		log.Info("header atom wasn't found, container might hold only an outline reference")
		return nil
	}
	length := 1
	for *idx+length < len(records) {
		if _, ok := records[*idx+length].(*record.TextHeaderAtom); ok {
			break
		}
		length++
	}
	out := records[*idx : *idx+length]
	*idx += length
	return out
}

// findStyleAtom locates the style record belonging to the given header:
// the last StyleTextPropAtom between the header and the next one. When
// the block has none a single-span collection covering the whole text is
// synthesized; that marker forces regeneration on the next save.
func findStyleAtom(host *record.Container, header *record.TextHeaderAtom, textLen int, log *zap.Logger) (*record.StyleTextPropAtom, error) {
	afterHeader := false
	var style *record.StyleTextPropAtom
	for _, r := range host.Children() {
		if h, ok := r.(*record.TextHeaderAtom); ok {
			if afterHeader && h != header {
				break
			}
			afterHeader = afterHeader || h == header
			continue
		}
		if a, ok := r.(*record.StyleTextPropAtom); afterHeader && ok {
			style = a
		}
	}

	if style == nil {
		log.Info("styles atom doesn't exist, creating dummy record for later saving")
		if textLen < 0 {
			textLen = 1
		}
		return record.NewStyleTextPropAtom(textLen), nil
	}
	if textLen >= 0 {
		if err := style.SetParentTextSize(textLen); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return style, nil
}

// applyCharacterStyles distributes the decoded character spans over the
// freshly split runs. A span boundary falling strictly inside a run
// splits the run at that exact offset; a boundary on a run boundary never
// creates a zero-length run. The last run of the last paragraph absorbs
// one extra phantom character, the block terminator.
func applyCharacterStyles(paragraphs []*Paragraph, charStyles []*textprop.Collection) error {
	paraIdx, runIdx := 0, 0

	for csIdx, style := range charStyles {
		ccStyle := style.CharactersCovered()
		for ccRun := 0; ccRun < ccStyle; {
			if paraIdx >= len(paragraphs) {
				return fmt.Errorf("%w: character style coverage exceeds text", ErrMalformed)
			}
			para := paragraphs[paraIdx]
			if runIdx >= len(para.runs) {
				return fmt.Errorf("%w: character style walk lost run position", ErrMalformed)
			}
			run := para.runs[runIdx]
			length := run.Length()

			if ccRun+length <= ccStyle {
				ccRun += length
			} else {
				// the span ends inside this run, split it at the boundary
				head, tail := splitAt(run.text, ccStyle-ccRun)
				run.text = head

				next := newRun(para)
				next.text = tail
				para.runs = append(para.runs, nil)
				copy(para.runs[runIdx+2:], para.runs[runIdx+1:])
				para.runs[runIdx+1] = next

				ccRun = ccStyle
			}

			run.style = style.Clone()
			run.style.UpdateTextSize(0)

			length = run.Length()
			if paraIdx == len(paragraphs)-1 && runIdx == len(para.runs)-1 {
				if csIdx < len(charStyles)-1 {
					// more spans than text: give the remainder an empty
					// trailing run to attach to
					next := newRun(para)
					next.text = ""
					para.runs = append(para.runs, next)
				} else {
					// the terminator belongs to the very last run
					length++
					ccRun++
				}
			}
			run.style.UpdateTextSize(length)

			// the run list may have grown, so compare against it again
			runIdx++
			if runIdx == len(para.runs) {
				paraIdx++
				runIdx = 0
			}
		}
	}
	return nil
}

// applyParagraphStyles assigns one paragraph span per paragraph walked in
// coverage order. The walk stops early when a span's remaining coverage
// drops to a single character; that matches how the format's writers
// account for the block terminator, so the boundary condition is kept
// exactly as is.
func applyParagraphStyles(paragraphs []*Paragraph, paraStyles []*textprop.Collection) error {
	paraIdx := 0
	for _, style := range paraStyles {
		ccStyle := style.CharactersCovered()
		for ccPara := 0; ccPara < ccStyle; paraIdx++ {
			if paraIdx >= len(paragraphs) || ccPara >= ccStyle-1 {
				return nil
			}
			para := paragraphs[paraIdx]
			para.SetParagraphStyle(style)

			length := para.textLength()
			if paraIdx == len(paragraphs)-1 {
				length++
			}
			para.style.UpdateTextSize(length)
			ccPara += length
		}
	}
	return nil
}

// applyParagraphIndents walks the indent records in the same proportional
// manner, one paragraph at a time.
func applyParagraphIndents(paragraphs []*Paragraph, indents []record.IndentProp) error {
	paraIdx := 0
	for _, in := range indents {
		for ccPara := 0; ccPara < in.CharactersCovered; paraIdx++ {
			if paraIdx >= len(paragraphs) {
				return fmt.Errorf("%w: indent coverage exceeds paragraphs", ErrMalformed)
			}
			para := paragraphs[paraIdx]
			para.SetIndentLevel(in.IndentLevel)
			ccPara += para.textLength() + 1
		}
	}
	return nil
}
