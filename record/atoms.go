package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Text types stored in the TextHeaderAtom.
const (
	TextTypeTitle = iota
	TextTypeBody
	TextTypeNotes
	textTypeNotUsed
	TextTypeOther
	TextTypeCenterBody
	TextTypeCenterTitle
	TextTypeHalfBody
	TextTypeQuarterBody
)

// TextHeaderAtom marks the start of one text block within a record
// sequence and carries the block's text type. The index is runtime-only
// bookkeeping: the position of the block in its slide-list container,
// used to resolve outline references.
type TextHeaderAtom struct {
	instance int
	textType int
	index    int
}

func NewTextHeaderAtom(textType int) *TextHeaderAtom {
	return &TextHeaderAtom{textType: textType, index: -1}
}

func decodeTextHeaderAtom(h header, payload []byte) (*TextHeaderAtom, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: TextHeaderAtom payload", ErrTruncated)
	}
	return &TextHeaderAtom{
		instance: h.instance(),
		textType: int(binary.LittleEndian.Uint32(payload)),
		index:    -1,
	}, nil
}

func (a *TextHeaderAtom) RecType() Type { return TypeTextHeader }
func (a *TextHeaderAtom) Instance() int { return a.instance }

func (a *TextHeaderAtom) TextType() int      { return a.textType }
func (a *TextHeaderAtom) SetTextType(tt int) { a.textType = tt }
func (a *TextHeaderAtom) Index() int         { return a.index }
func (a *TextHeaderAtom) SetIndex(idx int)   { a.index = idx }

func (a *TextHeaderAtom) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeTextHeader, 4)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(a.textType))
	return buf.Bytes(), nil
}

var (
	narrowEncoding = charmap.ISO8859_1
	wideEncoding   = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// TextBytesAtom stores block text in the narrow single-byte encoding.
type TextBytesAtom struct {
	instance int
	text     string
}

func NewTextBytesAtom() *TextBytesAtom { return &TextBytesAtom{} }

func decodeTextBytesAtom(h header, payload []byte) (*TextBytesAtom, error) {
	text, err := narrowEncoding.NewDecoder().Bytes(payload)
	if err != nil {
		return nil, fmt.Errorf("TextBytesAtom: %w", err)
	}
	return &TextBytesAtom{instance: h.instance(), text: string(text)}, nil
}

func (a *TextBytesAtom) RecType() Type { return TypeTextBytes }
func (a *TextBytesAtom) Instance() int { return a.instance }

func (a *TextBytesAtom) Text() string        { return a.text }
func (a *TextBytesAtom) SetText(text string) { a.text = text }

func (a *TextBytesAtom) Marshal() ([]byte, error) {
	payload, err := narrowEncoding.NewEncoder().Bytes([]byte(a.text))
	if err != nil {
		return nil, fmt.Errorf("TextBytesAtom: text does not fit narrow encoding: %w", err)
	}
	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeTextBytes, len(payload))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// TextCharsAtom stores block text in the wide UTF-16LE encoding.
type TextCharsAtom struct {
	instance int
	text     string
}

func NewTextCharsAtom() *TextCharsAtom { return &TextCharsAtom{} }

func decodeTextCharsAtom(h header, payload []byte) (*TextCharsAtom, error) {
	text, err := wideEncoding.NewDecoder().Bytes(payload)
	if err != nil {
		return nil, fmt.Errorf("TextCharsAtom: %w", err)
	}
	return &TextCharsAtom{instance: h.instance(), text: string(text)}, nil
}

func (a *TextCharsAtom) RecType() Type { return TypeTextChars }
func (a *TextCharsAtom) Instance() int { return a.instance }

func (a *TextCharsAtom) Text() string        { return a.text }
func (a *TextCharsAtom) SetText(text string) { a.text = text }

func (a *TextCharsAtom) Marshal() ([]byte, error) {
	payload, err := wideEncoding.NewEncoder().Bytes([]byte(a.text))
	if err != nil {
		return nil, fmt.Errorf("TextCharsAtom: %w", err)
	}
	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeTextChars, len(payload))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// TextRulerAtom carries tab stops and indent offsets for a text block.
// The default tab size and the explicit tab stops are interpreted, the
// remaining payload (per-level margins and indents) is kept verbatim.
type TextRulerAtom struct {
	instance int
	data     []byte
}

// ruler field mask bits, the flagged fields follow the mask in this order
const (
	rulerHasDefaultTabSize = 0x1
	rulerHasLevels         = 0x2
	rulerHasTabStops       = 0x4
)

// TabStop is one explicit tab stop of a ruler: a position in master
// units and an alignment kind.
type TabStop struct {
	Position int
	Kind     int
}

// NewParagraphRuler creates the minimal ruler used when a caller asks for
// one on a block that has none: an empty field mask.
func NewParagraphRuler() *TextRulerAtom {
	return &TextRulerAtom{data: []byte{0, 0, 0, 0}}
}

func decodeTextRulerAtom(h header, payload []byte) (*TextRulerAtom, error) {
	return &TextRulerAtom{instance: h.instance(), data: append([]byte(nil), payload...)}, nil
}

func (a *TextRulerAtom) RecType() Type { return TypeTextRuler }
func (a *TextRulerAtom) Instance() int { return a.instance }

// DefaultTabSize returns the ruler's default tab size in master units, or
// false when the ruler does not set one.
func (a *TextRulerAtom) DefaultTabSize() (int, bool) {
	size, ok, _ := a.fields()
	return size, ok
}

// TabStops returns the ruler's explicit tab stops, nil when it carries
// none.
func (a *TextRulerAtom) TabStops() []TabStop {
	_, _, tabs := a.fields()
	return tabs
}

func (a *TextRulerAtom) fields() (defaultTab int, hasDefault bool, tabs []TabStop) {
	if len(a.data) < 4 {
		return 0, false, nil
	}
	mask := binary.LittleEndian.Uint32(a.data[0:4])
	off := 4
	if mask&rulerHasLevels != 0 {
		off += 2
	}
	if mask&rulerHasDefaultTabSize != 0 {
		if off+2 > len(a.data) {
			return 0, false, nil
		}
		defaultTab = int(binary.LittleEndian.Uint16(a.data[off : off+2]))
		hasDefault = true
		off += 2
	}
	if mask&rulerHasTabStops != 0 {
		if off+2 > len(a.data) {
			return defaultTab, hasDefault, nil
		}
		count := int(binary.LittleEndian.Uint16(a.data[off : off+2]))
		off += 2
		for i := 0; i < count && off+4 <= len(a.data); i++ {
			tabs = append(tabs, TabStop{
				Position: int(int16(binary.LittleEndian.Uint16(a.data[off : off+2]))),
				Kind:     int(binary.LittleEndian.Uint16(a.data[off+2 : off+4])),
			})
			off += 4
		}
	}
	return defaultTab, hasDefault, tabs
}

func (a *TextRulerAtom) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeTextRuler, len(a.data))
	buf.Write(a.data)
	return buf.Bytes(), nil
}

// IndentProp is one entry of a MasterTextPropAtom: an indentation level
// applied to a run of characters.
type IndentProp struct {
	CharactersCovered int
	IndentLevel       int
}

// MasterTextPropAtom assigns indentation levels across a block's text.
type MasterTextPropAtom struct {
	instance int
	indents  []IndentProp
}

func decodeMasterTextPropAtom(h header, payload []byte) (*MasterTextPropAtom, error) {
	if len(payload)%6 != 0 {
		return nil, fmt.Errorf("MasterTextPropAtom: payload size %d not a multiple of 6", len(payload))
	}
	a := &MasterTextPropAtom{instance: h.instance()}
	for off := 0; off < len(payload); off += 6 {
		a.indents = append(a.indents, IndentProp{
			CharactersCovered: int(binary.LittleEndian.Uint32(payload[off : off+4])),
			IndentLevel:       int(binary.LittleEndian.Uint16(payload[off+4 : off+6])),
		})
	}
	return a, nil
}

func (a *MasterTextPropAtom) RecType() Type         { return TypeMasterTextProp }
func (a *MasterTextPropAtom) Instance() int         { return a.instance }
func (a *MasterTextPropAtom) Indents() []IndentProp { return a.indents }

func (a *MasterTextPropAtom) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeMasterTextProp, len(a.indents)*6)
	for _, in := range a.indents {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(in.CharactersCovered))
		_ = binary.Write(&buf, binary.LittleEndian, uint16(in.IndentLevel))
	}
	return buf.Bytes(), nil
}

// OutlineTextRefAtom replaces the text records of a block that borrows
// another block's paragraphs: it refers to a slide-list text block by
// index instead.
type OutlineTextRefAtom struct {
	instance int
	index    int
}

func NewOutlineTextRefAtom(index int) *OutlineTextRefAtom {
	return &OutlineTextRefAtom{index: index}
}

func decodeOutlineTextRefAtom(h header, payload []byte) (*OutlineTextRefAtom, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: OutlineTextRefAtom payload", ErrTruncated)
	}
	return &OutlineTextRefAtom{
		instance: h.instance(),
		index:    int(int32(binary.LittleEndian.Uint32(payload))),
	}, nil
}

func (a *OutlineTextRefAtom) RecType() Type  { return TypeOutlineTextRef }
func (a *OutlineTextRefAtom) Instance() int  { return a.instance }
func (a *OutlineTextRefAtom) TextIndex() int { return a.index }

func (a *OutlineTextRefAtom) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeOutlineTextRef, 4)
	_ = binary.Write(&buf, binary.LittleEndian, int32(a.index))
	return buf.Bytes(), nil
}
