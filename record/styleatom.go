package record

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"hslf/textprop"
)

// StyleTextPropAtom carries the paragraph-level and character-level style
// spans of one text block. The payload cannot be decoded in isolation:
// the split between paragraph and character spans is only known once the
// owning block's text length is supplied via SetParentTextSize.
type StyleTextPropAtom struct {
	instance int

	paragraphStyles []*textprop.Collection
	charStyles      []*textprop.Collection

	raw         []byte
	initialized bool
}

// NewStyleTextPropAtom synthesizes the style record for a block that has
// none: a single paragraph span and a single character span covering the
// whole text. Use a length of 1 when the text length is unknown.
func NewStyleTextPropAtom(textLen int) *StyleTextPropAtom {
	return &StyleTextPropAtom{
		paragraphStyles: []*textprop.Collection{textprop.NewCollection(textLen, textprop.Paragraph)},
		charStyles:      []*textprop.Collection{textprop.NewCollection(textLen, textprop.Character)},
		initialized:     true,
	}
}

func decodeStyleTextPropAtom(h header, payload []byte) (*StyleTextPropAtom, error) {
	return &StyleTextPropAtom{
		instance: h.instance(),
		raw:      append([]byte(nil), payload...),
	}, nil
}

func (a *StyleTextPropAtom) RecType() Type { return TypeStyleTextProp }
func (a *StyleTextPropAtom) Instance() int { return a.instance }

// Initialized reports whether the spans have been decoded (or freshly
// synthesized) and the typed accessors are meaningful.
func (a *StyleTextPropAtom) Initialized() bool { return a.initialized }

// SetParentTextSize decodes the raw payload against the owning text
// length: paragraph spans are read until they cover the text, the rest of
// the payload holds the character spans. A span list ending exactly one
// character short of the text accounts for the implicit terminator.
func (a *StyleTextPropAtom) SetParentTextSize(size int) error {
	if a.initialized {
		return nil
	}
	r := bytes.NewReader(a.raw)

	paraSize := size
	handled := 0
	for r.Len() > 0 && handled < paraSize {
		coll, n, err := readCollection(r, textprop.Paragraph)
		if err != nil {
			return fmt.Errorf("StyleTextPropAtom paragraph spans: %w", err)
		}
		a.paragraphStyles = append(a.paragraphStyles, coll)
		handled += n
		if r.Len() > 0 && handled == size {
			// the last span's terminator character sits just past the text
			paraSize++
		}
	}

	charSize := size
	handled = 0
	for r.Len() > 0 && handled < charSize {
		coll, n, err := readCollection(r, textprop.Character)
		if err != nil {
			return fmt.Errorf("StyleTextPropAtom character spans: %w", err)
		}
		a.charStyles = append(a.charStyles, coll)
		handled += n
		if r.Len() > 0 && handled == size {
			charSize++
		}
	}

	a.initialized = true
	return nil
}

func readCollection(r *bytes.Reader, kind textprop.Kind) (*textprop.Collection, int, error) {
	var covered uint32
	if err := binary.Read(r, binary.LittleEndian, &covered); err != nil {
		return nil, 0, fmt.Errorf("span coverage: %w", err)
	}
	coll := textprop.NewCollection(int(covered), kind)
	if kind == textprop.Paragraph {
		var indent uint16
		if err := binary.Read(r, binary.LittleEndian, &indent); err != nil {
			return nil, 0, fmt.Errorf("indent level: %w", err)
		}
		coll.SetIndentLevel(int(indent))
	}
	if err := coll.ReadProps(r); err != nil {
		return nil, 0, err
	}
	return coll, int(covered), nil
}

// ParagraphStyles returns the decoded paragraph spans in text order.
func (a *StyleTextPropAtom) ParagraphStyles() []*textprop.Collection { return a.paragraphStyles }

// CharacterStyles returns the decoded character spans in text order.
func (a *StyleTextPropAtom) CharacterStyles() []*textprop.Collection { return a.charStyles }

// ClearStyles drops all spans so the serializer can regenerate them.
func (a *StyleTextPropAtom) ClearStyles() {
	a.paragraphStyles = nil
	a.charStyles = nil
	a.raw = nil
	a.initialized = true
}

// AddParagraphTextPropCollection appends a fresh paragraph span.
func (a *StyleTextPropAtom) AddParagraphTextPropCollection(coverage int) *textprop.Collection {
	coll := textprop.NewCollection(coverage, textprop.Paragraph)
	a.paragraphStyles = append(a.paragraphStyles, coll)
	return coll
}

// AddCharacterTextPropCollection appends a fresh character span.
func (a *StyleTextPropAtom) AddCharacterTextPropCollection(coverage int) *textprop.Collection {
	coll := textprop.NewCollection(coverage, textprop.Character)
	a.charStyles = append(a.charStyles, coll)
	return coll
}

func (a *StyleTextPropAtom) Marshal() ([]byte, error) {
	if !a.initialized && a.raw != nil {
		// never decoded, pass the payload through untouched
		var buf bytes.Buffer
		writeHeader(&buf, 0, a.instance, TypeStyleTextProp, len(a.raw))
		buf.Write(a.raw)
		return buf.Bytes(), nil
	}

	var payload bytes.Buffer
	for _, coll := range a.paragraphStyles {
		_ = binary.Write(&payload, binary.LittleEndian, uint32(coll.CharactersCovered()))
		_ = binary.Write(&payload, binary.LittleEndian, uint16(coll.IndentLevel()))
		if err := coll.WriteProps(&payload); err != nil {
			return nil, fmt.Errorf("StyleTextPropAtom paragraph spans: %w", err)
		}
	}
	for _, coll := range a.charStyles {
		_ = binary.Write(&payload, binary.LittleEndian, uint32(coll.CharactersCovered()))
		if err := coll.WriteProps(&payload); err != nil {
			return nil, fmt.Errorf("StyleTextPropAtom character spans: %w", err)
		}
	}

	var buf bytes.Buffer
	writeHeader(&buf, 0, a.instance, TypeStyleTextProp, payload.Len())
	buf.Write(payload.Bytes())
	return buf.Bytes(), nil
}
