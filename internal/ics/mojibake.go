package ics

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// RepairMojibake reverses the classic UTF-8-read-as-Latin-1 corruption
// ("GrÃ¶t" -> "Gröt"). Corrupted Swedish text always contains 'Ã' or
// 'Â' artifacts, so those act as the trigger; clean strings pass
// through untouched. The repair re-encodes the string as Latin-1 bytes
// and reinterprets them as UTF-8. If the string contains runes outside
// Latin-1, or the resulting bytes are not valid UTF-8, it was not this
// corruption pattern and the input is returned unchanged.
func RepairMojibake(s string) string {
	if !strings.ContainsRune(s, 'Ã') && !strings.ContainsRune(s, 'Â') {
		return s
	}
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil || !utf8.Valid(b) {
		return s
	}
	return string(b)
}
