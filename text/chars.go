package text

import "unicode/utf16"

// Character counts and split offsets of the engine are expressed in
// UTF-16 code units, matching how the wide storage record and the style
// span coverage count text on disk.

func charLen(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// splitAt splits s at the given UTF-16 offset.
func splitAt(s string, off int) (string, string) {
	units := utf16.Encode([]rune(s))
	if off < 0 {
		off = 0
	}
	if off > len(units) {
		off = len(units)
	}
	return string(utf16.Decode(units[:off])), string(utf16.Decode(units[off:]))
}

// hasMultibyte reports whether any character of s needs more than one
// byte in the narrow legacy encoding.
func hasMultibyte(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return true
		}
	}
	return false
}
