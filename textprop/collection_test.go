package textprop

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestAddWithName_KeepsCatalogOrder(t *testing.T) {
	c := NewCollection(0, Paragraph)

	c.AddWithName(AlignmentName).SetValue(AlignCenter)
	c.AddWithName(ParagraphFlagsName).SetValue(1)
	c.AddWithName(BulletCharName).SetValue('*')

	got := make([]string, 0, len(c.Props()))
	for _, p := range c.Props() {
		got = append(got, p.Name())
	}
	want := []string{ParagraphFlagsName, BulletCharName, AlignmentName}
	if len(got) != len(want) {
		t.Fatalf("props = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("props[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAddWithName_ReturnsExisting(t *testing.T) {
	c := NewCollection(0, Character)
	p1 := c.AddWithName(FontSizeName)
	p1.SetValue(24)
	p2 := c.AddWithName(FontSizeName)
	if p1 != p2 {
		t.Error("AddWithName() created a duplicate property")
	}
	if len(c.Props()) != 1 {
		t.Errorf("len(props) = %d, want 1", len(c.Props()))
	}
}

func TestAddWithName_UnknownProperty(t *testing.T) {
	c := NewCollection(0, Character)
	p := c.AddWithName("no.such.property")
	if p == nil {
		t.Fatal("AddWithName() returned nil for unknown property")
	}
	p.SetValue(42)
	if p.Mask() != 0 {
		t.Errorf("unknown property mask = %#x, want 0", p.Mask())
	}

	// carriers without a mask must not leak into serialization
	var buf bytes.Buffer
	if err := c.WriteProps(&buf); err != nil {
		t.Fatalf("WriteProps() error = %v", err)
	}
	if buf.Len() != 4 {
		t.Errorf("serialized %d bytes, want only the 4 byte mask", buf.Len())
	}
}

func TestWriteReadProps_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		fill func(c *Collection)
	}{
		{
			name: "character flags and font",
			kind: Character,
			fill: func(c *Collection) {
				f := c.AddWithName(CharFlagsName)
				f.SetSubValue(true, BoldFlag)
				f.SetSubValue(true, UnderlineFlag)
				c.AddWithName(FontSizeName).SetValue(32)
				c.AddWithName(FontColorName).SetValue(0x00FF00)
			},
		},
		{
			name: "paragraph spacing",
			kind: Paragraph,
			fill: func(c *Collection) {
				c.AddWithName(AlignmentName).SetValue(AlignRight)
				c.AddWithName(SpaceBeforeName).SetValue(-30)
				c.AddWithName(LineSpacingName).SetValue(90)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewCollection(5, tt.kind)
			tt.fill(src)

			var buf bytes.Buffer
			if err := src.WriteProps(&buf); err != nil {
				t.Fatalf("WriteProps() error = %v", err)
			}

			dst := NewCollection(5, tt.kind)
			if err := dst.ReadProps(bytes.NewReader(buf.Bytes())); err != nil {
				t.Fatalf("ReadProps() error = %v", err)
			}

			if !src.Equals(dst) {
				t.Errorf("round trip changed collection: got %+v, want %+v", dst, src)
			}
		})
	}
}

func TestReadProps_UnknownMaskBits(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0x40000000))

	c := NewCollection(0, Paragraph)
	if err := c.ReadProps(bytes.NewReader(buf.Bytes())); err == nil {
		t.Error("expected error for unknown mask bits")
	}
}

func TestReadProps_TruncatedValue(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0x800)) // alignment present
	buf.WriteByte(0x01)                                        // but only one byte of it

	c := NewCollection(0, Paragraph)
	if err := c.ReadProps(bytes.NewReader(buf.Bytes())); err == nil {
		t.Error("expected error for truncated property value")
	}
}

func TestEquals_ExcludesCoverage(t *testing.T) {
	a := NewCollection(3, Character)
	a.AddWithName(FontSizeName).SetValue(18)

	b := NewCollection(11, Character)
	b.AddWithName(FontSizeName).SetValue(18)

	if !a.Equals(b) {
		t.Error("collections differing only in coverage must compare equal")
	}

	b.FindByName(FontSizeName).SetValue(20)
	if a.Equals(b) {
		t.Error("collections with different values must not compare equal")
	}
}

func TestEquals_IndentLevel(t *testing.T) {
	a := NewCollection(1, Paragraph)
	b := NewCollection(1, Paragraph)
	b.SetIndentLevel(2)
	if a.Equals(b) {
		t.Error("collections with different indent levels must not compare equal")
	}
}

func TestSetIndentLevel_Ignored(t *testing.T) {
	c := NewCollection(1, Paragraph)
	c.SetIndentLevel(2)
	c.SetIndentLevel(MaxIndentLevel + 1)
	if c.IndentLevel() != 2 {
		t.Errorf("IndentLevel() = %d, want 2 after out-of-range set", c.IndentLevel())
	}
	c.SetIndentLevel(-1)
	if c.IndentLevel() != 2 {
		t.Errorf("IndentLevel() = %d, want 2 after negative set", c.IndentLevel())
	}
}

func TestClone_IsDeep(t *testing.T) {
	src := NewCollection(4, Character)
	src.AddWithName(FontSizeName).SetValue(10)

	dst := src.Clone()
	dst.FindByName(FontSizeName).SetValue(99)

	if src.FindByName(FontSizeName).Value() != 10 {
		t.Error("mutating a clone leaked into the source collection")
	}
	if dst.CharactersCovered() != 4 {
		t.Errorf("clone coverage = %d, want 4", dst.CharactersCovered())
	}
}

func TestProp_SubValues(t *testing.T) {
	c := NewCollection(0, Character)
	f := c.AddWithName(CharFlagsName)

	f.SetSubValue(true, BoldFlag)
	f.SetSubValue(true, StrikethroughFlag)
	if !f.SubValue(BoldFlag) || !f.SubValue(StrikethroughFlag) {
		t.Error("flags not set")
	}
	if f.SubValue(ItalicFlag) {
		t.Error("unset flag reported as set")
	}

	f.SetSubValue(false, BoldFlag)
	if f.SubValue(BoldFlag) {
		t.Error("cleared flag still reported as set")
	}
	if !f.SubValue(StrikethroughFlag) {
		t.Error("clearing one flag disturbed another")
	}
}

func TestWriteProps_NegativeValues(t *testing.T) {
	src := NewCollection(1, Paragraph)
	src.AddWithName(SpaceAfterName).SetValue(-100)

	var buf bytes.Buffer
	if err := src.WriteProps(&buf); err != nil {
		t.Fatalf("WriteProps() error = %v", err)
	}

	dst := NewCollection(1, Paragraph)
	if err := dst.ReadProps(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("ReadProps() error = %v", err)
	}
	if got := dst.FindByName(SpaceAfterName).Value(); got != -100 {
		t.Errorf("SpaceAfter = %d, want -100", got)
	}
}
