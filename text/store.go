package text

import (
	"fmt"
	"strings"

	"hslf/record"
	"hslf/textprop"
)

// fixLineEndings makes every run that leads another paragraph end in the
// internal line separator. A paragraph without runs cannot be repaired
// and is a fatal defect.
func fixLineEndings(paragraphs []*Paragraph) error {
	var lastRun *Run
	for _, p := range paragraphs {
		if lastRun != nil && !strings.HasSuffix(lastRun.text, "\r") {
			lastRun.text += "\r"
		}
		if len(p.runs) == 0 {
			return fmt.Errorf("%w: paragraph without runs", ErrStructure)
		}
		lastRun = p.runs[len(p.runs)-1]
	}
	return nil
}

// Save serializes the possibly edited block back into its records: text
// is concatenated and stored narrow or wide, the style spans are
// regenerated by merging equal neighbours, auxiliary size records are
// brought in line and the host's flattened cache is rewritten. Save is
// the only writer of the underlying records.
func (b *Block) Save() error {
	if len(b.paras) == 0 {
		return fmt.Errorf("%w: block without paragraphs", ErrStructure)
	}
	if err := fixLineEndings(b.paras); err != nil {
		return err
	}

	rawText := toInternalString(b.RawText())
	textLen := charLen(rawText)

	// the whole block is stored either narrow or wide, never mixed
	isUnicode := hasMultibyte(rawText)

	header := b.paras[0].header
	bytesAtom := b.paras[0].bytesAtom
	charsAtom := b.paras[0].charsAtom

	styleAtom, err := findStyleAtom(b.host, header, textLen, b.logger())
	if err != nil {
		return err
	}

	var oldRecord, newRecord record.Record
	if isUnicode {
		if bytesAtom != nil || charsAtom == nil {
			if bytesAtom != nil {
				oldRecord = bytesAtom
			}
			charsAtom = record.NewTextCharsAtom()
		}
		charsAtom.SetText(rawText)
		bytesAtom = nil
		newRecord = charsAtom
	} else {
		if charsAtom != nil || bytesAtom == nil {
			if charsAtom != nil {
				oldRecord = charsAtom
			}
			bytesAtom = record.NewTextBytesAtom()
		}
		bytesAtom.SetText(rawText)
		charsAtom = nil
		newRecord = bytesAtom
	}

	children := b.host.Children()
	textIdx, styleIdx := -1, -1
	for i, r := range children {
		switch {
		case (oldRecord != nil && r == oldRecord) || r == newRecord:
			textIdx = i
		case r == styleAtom:
			styleIdx = i
		}
	}

	if textIdx == -1 {
		// the old record was never registered, splice after the header
		b.host.AddChildAfter(newRecord, header)
	} else if children[textIdx] != newRecord {
		// swap the storage form in place, order of siblings is kept
		b.host.ReplaceChild(children[textIdx], newRecord)
	}
	if styleIdx == -1 {
		b.host.AddChildAfter(styleAtom, newRecord)
	}

	for _, p := range b.paras {
		p.bytesAtom = bytesAtom
		p.charsAtom = charsAtom
	}

	// regenerate both span collections, starting a new span only when the
	// style differs from the previous paragraph's or run's
	styleAtom.ClearStyles()

	var lastPTPC, lastRTPC *textprop.Collection
	for _, para := range b.paras {
		ptpc := para.style
		ptpc.UpdateTextSize(0)
		if !ptpc.Equals(lastPTPC) {
			lastPTPC = styleAtom.AddParagraphTextPropCollection(0)
			lastPTPC.CopyFrom(ptpc)
		}
		for _, run := range para.runs {
			rtpc := run.style
			rtpc.UpdateTextSize(0)
			if !rtpc.Equals(lastRTPC) {
				lastRTPC = styleAtom.AddCharacterTextPropCollection(0)
				lastRTPC.CopyFrom(rtpc)
			}
			length := run.Length()
			ptpc.UpdateTextSize(ptpc.CharactersCovered() + length)
			rtpc.UpdateTextSize(length)
			lastPTPC.UpdateTextSize(lastPTPC.CharactersCovered() + length)
			lastRTPC.UpdateTextSize(lastRTPC.CharactersCovered() + length)
		}
	}

	// the implicit terminator is counted once on every collection that
	// ends the block
	lastPara := b.paras[len(b.paras)-1]
	lastRun := lastPara.runs[len(lastPara.runs)-1]
	lastPara.style.UpdateTextSize(lastPara.style.CharactersCovered() + 1)
	lastRun.style.UpdateTextSize(lastRun.style.CharactersCovered() + 1)
	lastPTPC.UpdateTextSize(lastPTPC.CharactersCovered() + 1)
	lastRTPC.UpdateTextSize(lastRTPC.CharactersCovered() + 1)

	// without a correct size here the document is corrupted
	idx := 0
	for _, r := range blockRecords(b.host.Children(), &idx, header, b.logger()) {
		if si, ok := r.(*record.TextSpecInfoAtom); ok {
			si.SetParentSize(textLen + 1)
			break
		}
	}

	if b.tb != nil {
		if err := b.tb.Sync(); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}
	return nil
}
