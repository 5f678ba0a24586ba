package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// specInfoRun is one run of a TextSpecInfoAtom: language and spelling
// auxiliary data covering a stretch of the block's text.
type specInfoRun struct {
	count int
	mask  uint32

	spellInfo int16
	langID    int16
	altLangID int16
	bidi      int16
	smartTags []uint32
}

const (
	siSpell     = 0x1
	siLang      = 0x2
	siAltLang   = 0x4
	siBidi      = 0x8
	siSmartTags = 0x200

	siKnownMask = siSpell | siLang | siAltLang | siBidi | siSmartTags
)

// TextSpecInfoAtom tracks the text size of its block alongside spelling
// and language runs. The size field has to follow every text edit or the
// document is corrupted.
type TextSpecInfoAtom struct {
	instance int
	runs     []specInfoRun
}

func decodeTextSpecInfoAtom(h header, payload []byte) (*TextSpecInfoAtom, error) {
	a := &TextSpecInfoAtom{instance: h.instance()}
	r := bytes.NewReader(payload)
	for r.Len() > 0 {
		run, err := readSpecInfoRun(r)
		if err != nil {
			return nil, fmt.Errorf("TextSpecInfoAtom: %w", err)
		}
		a.runs = append(a.runs, run)
	}
	return a, nil
}

func readSpecInfoRun(r *bytes.Reader) (specInfoRun, error) {
	var run specInfoRun
	var count, mask uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return run, err
	}
	if err := binary.Read(r, binary.LittleEndian, &mask); err != nil {
		return run, err
	}
	if mask&^uint32(siKnownMask) != 0 {
		return run, fmt.Errorf("unsupported spec-info mask 0x%x", mask)
	}
	run.count = int(count)
	run.mask = mask
	for _, f := range []struct {
		bit uint32
		dst *int16
	}{
		{siSpell, &run.spellInfo},
		{siLang, &run.langID},
		{siAltLang, &run.altLangID},
		{siBidi, &run.bidi},
	} {
		if mask&f.bit == 0 {
			continue
		}
		if err := binary.Read(r, binary.LittleEndian, f.dst); err != nil {
			return run, err
		}
	}
	if mask&siSmartTags != 0 {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return run, err
		}
		run.smartTags = make([]uint32, n)
		if err := binary.Read(r, binary.LittleEndian, run.smartTags); err != nil {
			return run, err
		}
	}
	return run, nil
}

func (a *TextSpecInfoAtom) RecType() Type { return TypeTextSpecInfo }
func (a *TextSpecInfoAtom) Instance() int { return a.instance }

// CharactersCovered returns the total character count the runs cover.
func (a *TextSpecInfoAtom) CharactersCovered() int {
	total := 0
	for _, run := range a.runs {
		total += run.count
	}
	return total
}

// SetParentSize resizes the runs to cover exactly size characters: runs
// are kept in order and clamped, the last surviving run absorbs any
// remainder, runs past the new size are dropped.
func (a *TextSpecInfoAtom) SetParentSize(size int) {
	if size <= 0 {
		return
	}
	if len(a.runs) == 0 {
		a.runs = []specInfoRun{{count: size, mask: siLang}}
		return
	}
	remaining := size
	kept := a.runs[:0]
	for i, run := range a.runs {
		if run.count > remaining || i == len(a.runs)-1 {
			run.count = remaining
		}
		remaining -= run.count
		kept = append(kept, run)
		if remaining == 0 {
			break
		}
	}
	a.runs = kept
}

func (a *TextSpecInfoAtom) Marshal() ([]byte, error) {
	var payload bytes.Buffer
	for _, run := range a.runs {
		_ = binary.Write(&payload, binary.LittleEndian, uint32(run.count))
		_ = binary.Write(&payload, binary.LittleEndian, run.mask)
		for _, f := range []struct {
			bit uint32
			val int16
		}{
			{siSpell, run.spellInfo},
			{siLang, run.langID},
			{siAltLang, run.altLangID},
			{siBidi, run.bidi},
		} {
			if run.mask&f.bit != 0 {
				_ = binary.Write(&payload, binary.LittleEndian, f.val)
			}
		}
		if run.mask&siSmartTags != 0 {
			_ = binary.Write(&payload, binary.LittleEndian, uint32(len(run.smartTags)))
			_ = binary.Write(&payload, binary.LittleEndian, run.smartTags)
		}
	}
	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeTextSpecInfo, payload.Len())
	buf.Write(payload.Bytes())
	return buf.Bytes(), nil
}
