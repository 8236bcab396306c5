package ics

import "strings"

const (
	beginEvent = "BEGIN:VEVENT"
	endEvent   = "END:VEVENT"
)

// EventBlocks scans the logical lines of one document and returns each
// VEVENT as a single multi-line blob, begin and end markers included,
// in document order.
//
// The scan is a single forward pass:
//   - a begin marker always starts a fresh block, even mid-block
//   - an end marker outside a block is ignored
//   - lines outside any block are dropped
//   - a trailing block with no end marker is discarded, never emitted
func EventBlocks(lines []string) []string {
	var (
		blocks  []string
		current []string
		inEvent bool
	)

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, beginEvent):
			inEvent = true
			current = []string{line}
		case strings.HasPrefix(line, endEvent):
			if inEvent {
				current = append(current, line)
				blocks = append(blocks, strings.Join(current, "\n"))
			}
			inEvent = false
			current = nil
		case inEvent:
			current = append(current, line)
		}
	}
	return blocks
}
