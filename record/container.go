package record

import (
	"bytes"
	"fmt"
)

// Container is a record whose payload is a sequence of child records.
type Container struct {
	typ      Type
	instance int
	children []Record
}

func NewContainer(typ Type, instance int) *Container {
	return &Container{typ: typ, instance: instance}
}

func (c *Container) RecType() Type { return c.typ }
func (c *Container) Instance() int { return c.instance }

// Children returns the ordered child records. The slice is the live list,
// callers must not reorder it behind the container's back.
func (c *Container) Children() []Record { return c.children }

func (c *Container) AppendChild(r Record) { c.children = append(c.children, r) }

// AddChildAfter splices newRecord immediately after the given sibling,
// preserving the order of all other children. When after is not a child
// the record is appended at the end.
func (c *Container) AddChildAfter(newRecord, after Record) {
	for i, ch := range c.children {
		if ch == after {
			c.children = append(c.children, nil)
			copy(c.children[i+2:], c.children[i+1:])
			c.children[i+1] = newRecord
			return
		}
	}
	c.children = append(c.children, newRecord)
}

// ReplaceChild swaps old for replacement in place and reports whether old
// was found.
func (c *Container) ReplaceChild(old, replacement Record) bool {
	for i, ch := range c.children {
		if ch == old {
			c.children[i] = replacement
			return true
		}
	}
	return false
}

// RemoveChild deletes the record from the child list and reports whether
// it was found.
func (c *Container) RemoveChild(r Record) bool {
	for i, ch := range c.children {
		if ch == r {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return true
		}
	}
	return false
}

func marshalChildren(children []Record) ([]byte, error) {
	var buf bytes.Buffer
	for _, ch := range children {
		b, err := ch.Marshal()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ch.RecType(), err)
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

func (c *Container) Marshal() ([]byte, error) {
	payload, err := marshalChildren(c.children)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeHeader(&buf, containerVersion, c.instance, c.typ, len(payload))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Textbox is the container kind hosting one text block inside the drawing
// layer. It keeps a flattened byte form of its children that the drawing
// stream stores verbatim, so after any child mutation the cache has to be
// rewritten via Sync.
type Textbox struct {
	Container
	cache []byte
}

func NewTextbox(instance int) *Textbox {
	return &Textbox{Container: Container{typ: TypeTextbox, instance: instance}}
}

// Sync re-serializes the children into the cached byte form. Any failure
// leaves the cache untouched.
func (t *Textbox) Sync() error {
	payload, err := marshalChildren(t.children)
	if err != nil {
		return err
	}
	t.cache = payload
	return nil
}

// Cached returns the flattened byte form as of the last Sync (or decode).
func (t *Textbox) Cached() []byte { return t.cache }

func (t *Textbox) Marshal() ([]byte, error) {
	if err := t.Sync(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeHeader(&buf, containerVersion, t.instance, t.typ, len(t.cache))
	buf.Write(t.cache)
	return buf.Bytes(), nil
}
