package text

import (
	"fmt"

	"go.uber.org/zap"

	"hslf/record"
)

// AppendText adds text to the end of the block. External line breaks are
// normalized first; every line after the first starts a new paragraph
// cloning the style of the one before it. The first line extends the
// current last run unless asNewParagraph is set. The block is saved
// before returning.
func (b *Block) AppendText(text string, asNewParagraph bool) (*Run, error) {
	text = toInternalString(text)

	if len(b.paras) == 0 || len(b.paras[0].runs) == 0 {
		return nil, fmt.Errorf("%w: append on block without paragraphs or runs", ErrStructure)
	}

	para := b.paras[len(b.paras)-1]
	run := para.runs[len(para.runs)-1]

	isFirst := !asNewParagraph
	for _, seg := range splitAfterCR(text) {
		if !isFirst {
			prev := para
			para = newParagraph(prev.header, prev.bytesAtom, prev.charsAtom)
			para.style.CopyFrom(prev.style)
			para.block = b
			para.sheet = prev.sheet
			b.paras = append(b.paras, para)
		}
		isFirst = false

		style := run.style
		// an empty last run is reused, otherwise the segment gets a run of
		// its own carrying a copy of that run's style
		if run.Length() > 0 || run.para != para {
			run = newRun(para)
			run.style.CopyFrom(style)
			para.runs = append(para.runs, run)
		}
		run.text = seg
	}

	if err := b.Save(); err != nil {
		return nil, err
	}
	return run, nil
}

// SetText overwrites the block text. Only the first paragraph and its
// first run survive, text-cleared but style-preserved; the new text is
// then appended to them.
func (b *Block) SetText(text string) (*Run, error) {
	if len(b.paras) == 0 || len(b.paras[0].runs) == 0 {
		return nil, fmt.Errorf("%w: set text on block without paragraphs or runs", ErrStructure)
	}
	b.paras = b.paras[:1]
	first := b.paras[0]
	first.runs = first.runs[:1]
	first.runs[0].text = ""
	return b.AppendText(text, false)
}

// NewEmptyBlock builds the minimal record set of an empty text block: a
// header, an empty narrow text record and a single-span style record,
// hosted in a fresh textbox container, with one empty paragraph and run
// wired to them.
func NewEmptyBlock(log *zap.Logger) *Block {
	tb := record.NewTextbox(0)

	header := record.NewTextHeaderAtom(record.TextTypeOther)
	tb.AppendChild(header)

	tba := record.NewTextBytesAtom()
	tba.SetText("")
	tb.AppendChild(tba)

	sta := record.NewStyleTextPropAtom(1)
	tb.AppendChild(sta)

	block := &Block{host: &tb.Container, tb: tb, log: log}

	para := newParagraph(header, tba, nil)
	para.block = block
	para.style.CopyFrom(sta.ParagraphStyles()[0])

	run := newRun(para)
	run.style.CopyFrom(sta.CharacterStyles()[0])
	run.text = ""
	para.runs = append(para.runs, run)

	block.paras = []*Paragraph{para}
	return block
}
