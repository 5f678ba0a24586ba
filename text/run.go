package text

import "hslf/textprop"

// Run owns a stretch of raw text sharing one character style span. Runs
// are created by the parser or by edits and merged away again when
// consecutive runs serialize to the same style.
type Run struct {
	para  *Paragraph
	text  string
	style *textprop.Collection
}

func newRun(p *Paragraph) *Run {
	return &Run{para: p, style: textprop.NewCollection(1, textprop.Character)}
}

// Paragraph returns the owning paragraph.
func (r *Run) Paragraph() *Paragraph { return r.para }

// RawText returns the run text in internal form, \r separated.
func (r *Run) RawText() string { return r.text }

// SetRawText replaces the run text. The caller is responsible for
// serializing the block afterwards to restore coverage accounting.
func (r *Run) SetRawText(text string) { r.text = text }

// Length is the run's character count.
func (r *Run) Length() int { return charLen(r.text) }

// CharacterStyle returns the run's character style span.
func (r *Run) CharacterStyle() *textprop.Collection { return r.style }

// SetCharacterStyle copies the given span into the run's own.
func (r *Run) SetCharacterStyle(style *textprop.Collection) {
	r.style.CopyFrom(style)
}

func (r *Run) propVal(name string) (int, bool) {
	if prop := r.style.FindByName(name); prop != nil {
		return prop.Value(), true
	}
	if r.para == nil || r.para.sheet == nil {
		return 0, false
	}
	master := r.para.sheet.MasterSheet()
	if master == nil {
		return 0, false
	}
	prop := master.StyleAttribute(r.para.RunType(), r.para.IndentLevel(), name, true)
	if prop == nil {
		return 0, false
	}
	return prop.Value(), true
}

func (r *Run) setPropVal(name string, val int) {
	r.style.AddWithName(name).SetValue(val)
}

func (r *Run) flag(idx int) bool {
	prop := r.style.FindByName(textprop.CharFlagsName)
	if prop == nil && r.para != nil && r.para.sheet != nil {
		if master := r.para.sheet.MasterSheet(); master != nil {
			prop = master.StyleAttribute(r.para.RunType(), r.para.IndentLevel(), textprop.CharFlagsName, true)
		}
	}
	return prop != nil && prop.SubValue(idx)
}

func (r *Run) setFlag(idx int, on bool) {
	r.style.AddWithName(textprop.CharFlagsName).SetSubValue(on, idx)
}

func (r *Run) Bold() bool      { return r.flag(textprop.BoldFlag) }
func (r *Run) SetBold(on bool) { r.setFlag(textprop.BoldFlag, on) }

func (r *Run) Italic() bool      { return r.flag(textprop.ItalicFlag) }
func (r *Run) SetItalic(on bool) { r.setFlag(textprop.ItalicFlag, on) }

func (r *Run) Underlined() bool      { return r.flag(textprop.UnderlineFlag) }
func (r *Run) SetUnderlined(on bool) { r.setFlag(textprop.UnderlineFlag, on) }

func (r *Run) Shadowed() bool      { return r.flag(textprop.ShadowFlag) }
func (r *Run) SetShadowed(on bool) { r.setFlag(textprop.ShadowFlag, on) }

func (r *Run) Strikethrough() bool      { return r.flag(textprop.StrikethroughFlag) }
func (r *Run) SetStrikethrough(on bool) { r.setFlag(textprop.StrikethroughFlag, on) }

// FontSize returns the font size in points, -1 when undefined.
func (r *Run) FontSize() int {
	v, ok := r.propVal(textprop.FontSizeName)
	if !ok {
		return -1
	}
	return v
}

func (r *Run) SetFontSize(size int) { r.setPropVal(textprop.FontSizeName, size) }

// FontIndex returns the font index into the document font collection, -1
// when undefined.
func (r *Run) FontIndex() int {
	v, ok := r.propVal(textprop.FontIndexName)
	if !ok {
		return -1
	}
	return v
}

func (r *Run) SetFontIndex(idx int) { r.setPropVal(textprop.FontIndexName, idx) }

// FontColor returns the raw font color value, -1 when undefined. Color
// scheme resolution belongs to the document model, not the text engine.
func (r *Run) FontColor() int {
	v, ok := r.propVal(textprop.FontColorName)
	if !ok {
		return -1
	}
	return v
}

func (r *Run) SetFontColor(rgb int) { r.setPropVal(textprop.FontColorName, rgb) }
