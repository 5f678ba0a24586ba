package textprop

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Kind tells whether a collection carries paragraph-level or
// character-level properties.
type Kind int

const (
	Paragraph Kind = iota
	Character
)

func (k Kind) String() string {
	if k == Paragraph {
		return "paragraph"
	}
	return "character"
}

// MaxIndentLevel is the largest paragraph indentation level the format
// allows.
const MaxIndentLevel = 4

// Collection is one style span: a set of named properties covering a
// number of characters of the owning text block. The sum of coverage over
// all collections of a block equals the block text length plus one
// implicit terminator character.
type Collection struct {
	kind     Kind
	coverage int
	indent   int // paragraph collections only
	props    []*Prop
}

func NewCollection(coverage int, kind Kind) *Collection {
	return &Collection{kind: kind, coverage: coverage}
}

func (c *Collection) Kind() Kind             { return c.kind }
func (c *Collection) CharactersCovered() int { return c.coverage }

// UpdateTextSize sets the number of characters the collection covers.
// Keeping coverage consistent after text edits is the caller's job.
func (c *Collection) UpdateTextSize(n int) { c.coverage = n }

func (c *Collection) IndentLevel() int { return c.indent }

func (c *Collection) SetIndentLevel(level int) {
	if level < 0 || level > MaxIndentLevel {
		return
	}
	c.indent = level
}

// Props returns the properties in their on-disk order.
func (c *Collection) Props() []*Prop { return c.props }

// FindByName returns the named property or nil when it is locally absent.
// Defaults are a caller concern, resolved against the master styles.
func (c *Collection) FindByName(name string) *Prop {
	for _, p := range c.props {
		if p.name == name {
			return p
		}
	}
	return nil
}

// AddWithName returns the named property, adding it first when absent.
// Adding does not disturb coverage accounting.
func (c *Collection) AddWithName(name string) *Prop {
	if p := c.FindByName(name); p != nil {
		return p
	}
	tmpl := findTemplate(c.kind, name)
	if tmpl == nil {
		// not a known property of this kind, keep a zero-mask carrier so
		// the caller still gets a place to store the value
		p := &Prop{name: name}
		c.props = append(c.props, p)
		return p
	}
	p := tmpl.clone()
	c.insert(p)
	return p
}

// insert keeps props in catalog order so serialization is stable.
func (c *Collection) insert(p *Prop) {
	pos := len(c.props)
	pi := catalogIndex(c.kind, p.name)
	for i, q := range c.props {
		if catalogIndex(c.kind, q.name) > pi {
			pos = i
			break
		}
	}
	c.props = append(c.props, nil)
	copy(c.props[pos+1:], c.props[pos:])
	c.props[pos] = p
}

func findTemplate(kind Kind, name string) *Prop {
	for i := range catalog(kind) {
		if catalog(kind)[i].name == name {
			return &catalog(kind)[i]
		}
	}
	return nil
}

func catalogIndex(kind Kind, name string) int {
	for i := range catalog(kind) {
		if catalog(kind)[i].name == name {
			return i
		}
	}
	return len(catalog(kind))
}

// CopyFrom makes the collection a deep copy of other, kind included.
func (c *Collection) CopyFrom(other *Collection) {
	c.kind = other.kind
	c.coverage = other.coverage
	c.indent = other.indent
	c.props = make([]*Prop, 0, len(other.props))
	for _, p := range other.props {
		c.props = append(c.props, p.clone())
	}
}

func (c *Collection) Clone() *Collection {
	n := &Collection{}
	n.CopyFrom(c)
	return n
}

// Equals compares collections structurally: kind, indentation level and
// property values. Coverage is intentionally excluded so spans covering
// different character counts still merge during serialization.
func (c *Collection) Equals(o *Collection) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.kind != o.kind || c.indent != o.indent || len(c.props) != len(o.props) {
		return false
	}
	for i, p := range c.props {
		q := o.props[i]
		if p.name != q.name || p.value != q.value {
			return false
		}
	}
	return true
}

// mask returns the presence mask of all properties in the collection.
func (c *Collection) mask() uint32 {
	var m uint32
	for _, p := range c.props {
		m |= p.mask
	}
	return m
}

// ReadProps parses a mask followed by property values off r, in catalog
// order. Unknown mask bits are a data-corruption error.
func (c *Collection) ReadProps(r *bytes.Reader) error {
	var m uint32
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return fmt.Errorf("property mask: %w", err)
	}
	seen := uint32(0)
	for i := range catalog(c.kind) {
		tmpl := &catalog(c.kind)[i]
		if m&tmpl.mask == 0 {
			continue
		}
		seen |= tmpl.mask
		p := tmpl.clone()
		v, err := readValue(r, p.size)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.name, err)
		}
		p.value = v
		c.props = append(c.props, p)
	}
	if rest := m &^ seen; rest != 0 {
		return fmt.Errorf("unknown %s property bits 0x%x", c.kind, rest)
	}
	return nil
}

// WriteProps serializes the mask and the property values in catalog order.
func (c *Collection) WriteProps(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, c.mask()); err != nil {
		return err
	}
	for _, p := range c.props {
		if p.mask == 0 {
			continue // carrier without on-disk representation
		}
		if err := writeValue(w, p.size, p.value); err != nil {
			return fmt.Errorf("property %s: %w", p.name, err)
		}
	}
	return nil
}

func readValue(r *bytes.Reader, size int) (int, error) {
	switch size {
	case 2:
		var v int16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return int(v), nil
	case 4:
		var v int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("unsupported property size %d", size)
	}
}

func writeValue(w io.Writer, size, v int) error {
	switch size {
	case 2:
		return binary.Write(w, binary.LittleEndian, int16(v))
	case 4:
		return binary.Write(w, binary.LittleEndian, int32(v))
	default:
		return fmt.Errorf("unsupported property size %d", size)
	}
}
