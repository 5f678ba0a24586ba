package text

import "hslf/textprop"

// MasterSheet supplies master style properties for blocks that do not set
// a property locally.
type MasterSheet interface {
	// StyleAttribute looks up a master property for the given block text
	// type and indentation level. It returns nil when the master does not
	// define the property either.
	StyleAttribute(textType, level int, name string, isCharacter bool) *textprop.Prop
}

// Sheet is the slide or notes page a block belongs to. It is externally
// owned; the engine only consults it for master fallback and for
// resolving outline references against already parsed blocks.
type Sheet interface {
	// MasterSheet returns the master of the sheet, or nil.
	MasterSheet() MasterSheet
	// TextBlocks returns the sheet's parsed text blocks in order.
	TextBlocks() []*Block
}
