package text

import (
	"hslf/record"
	"hslf/textprop"
)

// Paragraph owns an ordered, non-empty sequence of runs and one paragraph
// style span. The sheet reference is non-owning and set by an explicit
// attach step after construction.
type Paragraph struct {
	header    *record.TextHeaderAtom
	bytesAtom *record.TextBytesAtom
	charsAtom *record.TextCharsAtom

	style *textprop.Collection
	ruler *record.TextRulerAtom
	runs  []*Run

	block *Block
	sheet Sheet
}

func newParagraph(header *record.TextHeaderAtom, ba *record.TextBytesAtom, ca *record.TextCharsAtom) *Paragraph {
	return &Paragraph{
		header:    header,
		bytesAtom: ba,
		charsAtom: ca,
		style:     textprop.NewCollection(1, textprop.Paragraph),
	}
}

// Runs returns the paragraph's runs in order.
func (p *Paragraph) Runs() []*Run { return p.runs }

// AddRun appends a run to the paragraph.
func (p *Paragraph) AddRun(r *Run) {
	r.para = p
	p.runs = append(p.runs, r)
}

// ParagraphStyle returns the paragraph style span.
func (p *Paragraph) ParagraphStyle() *textprop.Collection { return p.style }

// SetParagraphStyle copies the given span into the paragraph's own.
func (p *Paragraph) SetParagraphStyle(style *textprop.Collection) {
	p.style.CopyFrom(style)
}

// Sheet returns the attached sheet, or nil.
func (p *Paragraph) Sheet() Sheet { return p.sheet }

// RunType returns the text type of the owning header record.
func (p *Paragraph) RunType() int {
	if p.header == nil {
		return -1
	}
	return p.header.TextType()
}

// Ruler returns the block's ruler record, or nil.
func (p *Paragraph) Ruler() *record.TextRulerAtom { return p.ruler }

// CreateRuler returns the block's ruler record, materializing one right
// after the text storage record when the block has none.
func (p *Paragraph) CreateRuler() *record.TextRulerAtom {
	if p.ruler != nil {
		return p.ruler
	}
	p.ruler = record.NewParagraphRuler()
	if p.block != nil && p.block.host != nil {
		var after record.Record
		switch {
		case p.bytesAtom != nil:
			after = p.bytesAtom
		case p.charsAtom != nil:
			after = p.charsAtom
		default:
			after = p.header
		}
		p.block.host.AddChildAfter(p.ruler, after)
	}
	return p.ruler
}

// IndentLevel returns the paragraph indentation level.
func (p *Paragraph) IndentLevel() int { return p.style.IndentLevel() }

// SetIndentLevel sets the indentation level, within [0, 4].
func (p *Paragraph) SetIndentLevel(level int) { p.style.SetIndentLevel(level) }

// propVal resolves a paragraph property: the local style wins; when it is
// absent and the hard-override flag is not asserted, the master styles
// are consulted. The second result is false when neither defines it.
func (p *Paragraph) propVal(name string) (int, bool) {
	if prop := p.style.FindByName(name); prop != nil {
		return prop.Value(), true
	}
	mask := p.style.FindByName(textprop.ParagraphFlagsName)
	if mask != nil && mask.Value() == 0 {
		// hard attribute, master fallback suppressed for this paragraph
		return 0, false
	}
	if p.sheet == nil {
		return 0, false
	}
	master := p.sheet.MasterSheet()
	if master == nil {
		return 0, false
	}
	prop := master.StyleAttribute(p.RunType(), p.IndentLevel(), name, false)
	if prop == nil {
		return 0, false
	}
	return prop.Value(), true
}

func (p *Paragraph) setPropVal(name string, val int) {
	p.style.AddWithName(name).SetValue(val)
}

// flag resolves one bit of the paragraph_flags property, falling back to
// the master styles when the flag set is locally absent.
func (p *Paragraph) flag(idx int) bool {
	prop := p.style.FindByName(textprop.ParagraphFlagsName)
	if prop == nil && p.sheet != nil {
		if master := p.sheet.MasterSheet(); master != nil {
			prop = master.StyleAttribute(p.RunType(), p.IndentLevel(), textprop.ParagraphFlagsName, false)
		}
	}
	return prop != nil && prop.SubValue(idx)
}

func (p *Paragraph) setFlag(idx int, on bool) {
	p.style.AddWithName(textprop.ParagraphFlagsName).SetSubValue(on, idx)
}

// Alignment returns the paragraph alignment, AlignLeft when undefined.
func (p *Paragraph) Alignment() int {
	v, ok := p.propVal(textprop.AlignmentName)
	if !ok {
		return textprop.AlignLeft
	}
	return v
}

func (p *Paragraph) SetAlignment(align int) { p.setPropVal(textprop.AlignmentName, align) }

// Bullet reports whether the paragraph carries a bullet.
func (p *Paragraph) Bullet() bool { return p.flag(textprop.BulletFlag) }

func (p *Paragraph) SetBullet(on bool) { p.setFlag(textprop.BulletFlag, on) }

// BulletChar returns the bullet character, 0 when undefined.
func (p *Paragraph) BulletChar() rune {
	v, ok := p.propVal(textprop.BulletCharName)
	if !ok {
		return 0
	}
	return rune(v)
}

func (p *Paragraph) SetBulletChar(c rune) { p.setPropVal(textprop.BulletCharName, int(c)) }

// BulletFont returns the bullet font index, -1 when undefined.
func (p *Paragraph) BulletFont() int {
	v, ok := p.propVal(textprop.BulletFontName)
	if !ok {
		return -1
	}
	return v
}

func (p *Paragraph) SetBulletFont(idx int) {
	p.setPropVal(textprop.BulletFontName, idx)
	p.setFlag(textprop.BulletHardFontFlag, true)
}

// BulletSize returns the bullet size, -1 when undefined.
func (p *Paragraph) BulletSize() int {
	v, ok := p.propVal(textprop.BulletSizeName)
	if !ok {
		return -1
	}
	return v
}

func (p *Paragraph) SetBulletSize(size int) { p.setPropVal(textprop.BulletSizeName, size) }

// LineSpacing returns the line spacing, 0 when undefined. Values are in
// master units: non-negative is a percentage of normal line height,
// negative is an absolute spacing.
func (p *Paragraph) LineSpacing() int {
	v, _ := p.propVal(textprop.LineSpacingName)
	return v
}

func (p *Paragraph) SetLineSpacing(v int) { p.setPropVal(textprop.LineSpacingName, v) }

// SpaceBefore returns the spacing before the paragraph, 0 when undefined.
func (p *Paragraph) SpaceBefore() int {
	v, _ := p.propVal(textprop.SpaceBeforeName)
	return v
}

func (p *Paragraph) SetSpaceBefore(v int) { p.setPropVal(textprop.SpaceBeforeName, v) }

// SpaceAfter returns the spacing after the paragraph, 0 when undefined.
func (p *Paragraph) SpaceAfter() int {
	v, _ := p.propVal(textprop.SpaceAfterName)
	return v
}

func (p *Paragraph) SetSpaceAfter(v int) { p.setPropVal(textprop.SpaceAfterName, v) }

// LeftMargin returns the text offset in master units, 0 when undefined.
func (p *Paragraph) LeftMargin() int {
	v, _ := p.propVal(textprop.TextOffsetName)
	return v
}

func (p *Paragraph) SetLeftMargin(v int) { p.setPropVal(textprop.TextOffsetName, v) }

// Indent returns the bullet offset in master units, 0 when undefined.
func (p *Paragraph) Indent() int {
	v, _ := p.propVal(textprop.BulletOffsetName)
	return v
}

func (p *Paragraph) SetIndent(v int) { p.setPropVal(textprop.BulletOffsetName, v) }

func (p *Paragraph) textLength() int {
	total := 0
	for _, r := range p.runs {
		total += r.Length()
	}
	return total
}
