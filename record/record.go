// Package record implements the typed, length-prefixed binary records the
// legacy presentation format is built from. A record carries an 8 byte
// header (version/instance word, type tag, payload length) followed by
// the payload; a record whose version nibble is 0xF is a container and
// its payload is a flat sequence of child records.
package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Type is the record type tag.
type Type uint16

// Record type tags relevant to the text engine.
const (
	TypeOutlineTextRef    Type = 3998
	TypeTextHeader        Type = 3999
	TypeTextChars         Type = 4000
	TypeStyleTextProp     Type = 4001
	TypeMasterTextProp    Type = 4002
	TypeTextRuler         Type = 4006
	TypeTextBytes         Type = 4008
	TypeTextSpecInfo      Type = 4010
	TypeSlideListWithText Type = 4080
	TypeTextbox           Type = 0xF00D
)

func (t Type) String() string {
	switch t {
	case TypeOutlineTextRef:
		return "OutlineTextRefAtom"
	case TypeTextHeader:
		return "TextHeaderAtom"
	case TypeTextChars:
		return "TextCharsAtom"
	case TypeStyleTextProp:
		return "StyleTextPropAtom"
	case TypeMasterTextProp:
		return "MasterTextPropAtom"
	case TypeTextRuler:
		return "TextRulerAtom"
	case TypeTextBytes:
		return "TextBytesAtom"
	case TypeTextSpecInfo:
		return "TextSpecInfoAtom"
	case TypeSlideListWithText:
		return "SlideListWithText"
	case TypeTextbox:
		return "Textbox"
	default:
		return fmt.Sprintf("record(%d)", uint16(t))
	}
}

// ErrTruncated is returned when a record header or payload does not fit
// the remaining input.
var ErrTruncated = errors.New("record: truncated input")

const (
	headerSize       = 8
	containerVersion = 0xF
)

type header struct {
	verAndInstance uint16
	typ            Type
	length         uint32
}

func (h header) version() int  { return int(h.verAndInstance & 0xF) }
func (h header) instance() int { return int(h.verAndInstance >> 4) }

func readHeader(data []byte) (header, error) {
	if len(data) < headerSize {
		return header{}, ErrTruncated
	}
	return header{
		verAndInstance: binary.LittleEndian.Uint16(data[0:2]),
		typ:            Type(binary.LittleEndian.Uint16(data[2:4])),
		length:         binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

func writeHeader(buf *bytes.Buffer, version, instance int, typ Type, length int) {
	var h [headerSize]byte
	binary.LittleEndian.PutUint16(h[0:2], uint16(version&0xF)|uint16(instance)<<4)
	binary.LittleEndian.PutUint16(h[2:4], uint16(typ))
	binary.LittleEndian.PutUint32(h[4:8], uint32(length))
	buf.Write(h[:])
}

// Record is one node of the record tree.
type Record interface {
	// RecType returns the type tag discriminating record kinds.
	RecType() Type
	// Instance returns the instance bits of the header word.
	Instance() int
	// Marshal serializes the record, header included.
	Marshal() ([]byte, error)
}

// Unknown keeps records the engine has no typed view for. Payload bytes
// are preserved verbatim so a rewrite round-trips them untouched.
type Unknown struct {
	typ      Type
	version  int
	instance int
	data     []byte
}

func NewUnknown(typ Type, instance int, data []byte) *Unknown {
	return &Unknown{typ: typ, instance: instance, data: data}
}

func (u *Unknown) RecType() Type { return u.typ }
func (u *Unknown) Instance() int { return u.instance }
func (u *Unknown) Data() []byte  { return u.data }

func (u *Unknown) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, u.version, u.instance, u.typ, len(u.data))
	buf.Write(u.data)
	return buf.Bytes(), nil
}

// Decode parses a flat byte sequence into records, descending into
// containers and instantiating typed atoms for the text-relevant tags.
func Decode(data []byte) ([]Record, error) {
	var out []Record
	for len(data) > 0 {
		h, err := readHeader(data)
		if err != nil {
			return nil, err
		}
		if int(h.length) > len(data)-headerSize {
			return nil, fmt.Errorf("%w: %s payload %d exceeds remaining %d",
				ErrTruncated, h.typ, h.length, len(data)-headerSize)
		}
		payload := data[headerSize : headerSize+int(h.length)]
		data = data[headerSize+int(h.length):]

		r, err := decodeOne(h, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeOne(h header, payload []byte) (Record, error) {
	if h.version() == containerVersion {
		children, err := Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", h.typ, err)
		}
		if h.typ == TypeTextbox {
			tb := NewTextbox(h.instance())
			tb.children = children
			tb.cache = append([]byte(nil), payload...)
			return tb, nil
		}
		return &Container{typ: h.typ, instance: h.instance(), children: children}, nil
	}

	switch h.typ {
	case TypeTextHeader:
		return decodeTextHeaderAtom(h, payload)
	case TypeTextBytes:
		return decodeTextBytesAtom(h, payload)
	case TypeTextChars:
		return decodeTextCharsAtom(h, payload)
	case TypeStyleTextProp:
		return decodeStyleTextPropAtom(h, payload)
	case TypeMasterTextProp:
		return decodeMasterTextPropAtom(h, payload)
	case TypeTextRuler:
		return decodeTextRulerAtom(h, payload)
	case TypeTextSpecInfo:
		return decodeTextSpecInfoAtom(h, payload)
	case TypeOutlineTextRef:
		return decodeOutlineTextRefAtom(h, payload)
	default:
		return &Unknown{typ: h.typ, version: h.version(), instance: h.instance(), data: append([]byte(nil), payload...)}, nil
	}
}
