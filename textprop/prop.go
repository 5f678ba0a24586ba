// Package textprop implements style property spans of the legacy
// presentation format: ordered collections of named properties, each
// collection covering a run of characters of the owning text block.
package textprop

// Prop is a single named style property. Size is the number of bytes the
// value occupies on disk, Mask is the property's presence bit (or bits,
// for flag properties) in the collection mask.
type Prop struct {
	name    string
	size    int
	mask    uint32
	bitMask bool
	value   int
}

func newProp(size int, mask uint32, name string) Prop {
	return Prop{name: name, size: size, mask: mask}
}

func newBitMaskProp(size int, mask uint32, name string) Prop {
	return Prop{name: name, size: size, mask: mask, bitMask: true}
}

func (p *Prop) Name() string { return p.name }
func (p *Prop) Size() int    { return p.size }
func (p *Prop) Mask() uint32 { return p.mask }
func (p *Prop) Value() int   { return p.value }

func (p *Prop) SetValue(v int) { p.value = v }

// IsBitMask reports whether the property is a flag set where the mask
// covers several presence bits and the value is interpreted per bit.
func (p *Prop) IsBitMask() bool { return p.bitMask }

// SubValue returns the state of a single flag of a bit-mask property.
func (p *Prop) SubValue(idx int) bool {
	return p.value&(1<<uint(idx)) != 0
}

// SetSubValue flips a single flag of a bit-mask property.
func (p *Prop) SetSubValue(on bool, idx int) {
	if on {
		p.value |= 1 << uint(idx)
	} else {
		p.value &^= 1 << uint(idx)
	}
}

func (p *Prop) clone() *Prop {
	c := *p
	return &c
}

// Well known property names.
const (
	ParagraphFlagsName = "paragraph_flags"
	CharFlagsName      = "char_flags"
	WrapFlagsName      = "wrap_flags"

	AlignmentName    = "alignment"
	LineSpacingName  = "linespacing"
	SpaceBeforeName  = "spacebefore"
	SpaceAfterName   = "spaceafter"
	TextOffsetName   = "text.offset"
	BulletOffsetName = "bullet.offset"

	BulletCharName  = "bullet.char"
	BulletFontName  = "bullet.font"
	BulletSizeName  = "bullet.size"
	BulletColorName = "bullet.color"

	FontIndexName = "font.index"
	FontSizeName  = "font.size"
	FontColorName = "font.color"
)

// Flag indexes of the paragraph_flags bit-mask property.
const (
	BulletFlag = iota
	BulletHardFontFlag
	BulletHardColorFlag
	_
	BulletHardSizeFlag
)

// Flag indexes of the char_flags bit-mask property.
const (
	BoldFlag = iota
	ItalicFlag
	UnderlineFlag
	_
	ShadowFlag
	_
	_
	_
	StrikethroughFlag
	ReliefFlag
)

// Alignment values.
const (
	AlignLeft = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// paragraphProps lists paragraph-level properties in their on-disk order.
// The mask determines presence, the position in this table determines the
// order values are stored in.
var paragraphProps = []Prop{
	newBitMaskProp(2, 0xF, ParagraphFlagsName),
	newProp(2, 0x80, BulletCharName),
	newProp(2, 0x10, BulletFontName),
	newProp(2, 0x40, BulletSizeName),
	newProp(4, 0x20, BulletColorName),
	newProp(2, 0x800, AlignmentName),
	newProp(2, 0x1000, LineSpacingName),
	newProp(2, 0x2000, SpaceBeforeName),
	newProp(2, 0x4000, SpaceAfterName),
	newProp(2, 0x100, TextOffsetName),
	newProp(2, 0x400, BulletOffsetName),
	newProp(2, 0x8000, "defaultTabSize"),
	newProp(2, 0x10000, "fontAlign"),
	newBitMaskProp(2, 0xE0000, WrapFlagsName),
	newProp(2, 0x200000, "textDirection"),
}

// characterProps lists character-level properties in their on-disk order.
var characterProps = []Prop{
	newBitMaskProp(2, 0xFFFF, CharFlagsName),
	newProp(2, 0x10000, FontIndexName),
	newProp(2, 0x200000, "asian.font.index"),
	newProp(2, 0x400000, "ansi.font.index"),
	newProp(2, 0x800000, "symbol.font.index"),
	newProp(2, 0x20000, FontSizeName),
	newProp(4, 0x40000, FontColorName),
	newProp(2, 0x80000, "superscript"),
}

func catalog(kind Kind) []Prop {
	if kind == Paragraph {
		return paragraphProps
	}
	return characterProps
}
