package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaxDTStart is the sort sentinel for events without a usable DTSTART.
// It compares greater than any real RFC 5545 timestamp, so undated
// events always sort to the end instead of failing the merge.
const MaxDTStart = "99999999T000000Z"

// ExtractUID returns the trimmed UID value of an event block. The
// second return is false when the block has no UID line.
func ExtractUID(block string) (string, bool) {
	for _, line := range strings.Split(block, "\n") {
		cl, ok := ParseContentLine(line)
		if !ok || cl.Name != "UID" {
			continue
		}
		return strings.TrimSpace(cl.Value), true
	}
	return "", false
}

// SyntheticUID derives a fallback identity for a block without a UID,
// so such events are still deduplicated instead of silently dropped.
// The identity is content-addressed: identical block text yields the
// same identity across runs, but any textual difference (even
// whitespace) yields a distinct one.
func SyntheticUID(block string) string {
	sum := sha256.Sum256([]byte(block))
	return "NOUID-" + hex.EncodeToString(sum[:8])
}

// ExtractDTStart returns the block's DTSTART value for use as a lexical
// sort key, or MaxDTStart if the block carries none. Parameters on the
// property (DTSTART;TZID=...:) are ignored; the value is restricted to
// the timestamp character set, so list or period values contribute only
// their leading timestamp run.
func ExtractDTStart(block string) string {
	for _, line := range strings.Split(block, "\n") {
		cl, ok := ParseContentLine(line)
		if !ok || cl.Name != "DTSTART" {
			continue
		}
		if run := leadingTimestampRun(cl.Value); run != "" {
			return run
		}
	}
	return MaxDTStart
}

// CalendarName returns the display name a document declares for itself:
// X-WR-CALNAME if present, else PRODID. The second return is false when
// the document declares neither.
func CalendarName(doc string) (string, bool) {
	lines := Unfold(doc)
	for _, want := range []string{"X-WR-CALNAME", "PRODID"} {
		for _, line := range lines {
			cl, ok := ParseContentLine(line)
			if !ok || cl.Name != want {
				continue
			}
			if v := strings.TrimSpace(cl.Value); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func leadingTimestampRun(v string) string {
	i := 0
	for i < len(v) && isTimestampByte(v[i]) {
		i++
	}
	return v[:i]
}

func isTimestampByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == 'T' || c == 'Z' || c == 'W' || c == '+' || c == '-':
		return true
	}
	return false
}
