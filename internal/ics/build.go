package ics

import "strings"

const prodID = "PRODID:-//familjekalender//github//"

// BuildCalendar wraps the merged events in a VCALENDAR envelope: the
// fixed six-line header carrying the given display name, every event
// blob verbatim in the given order, and the closing marker. The result
// is newline-terminated; no folding is applied, events are emitted
// exactly as extracted.
func BuildCalendar(name string, events []string) string {
	lines := make([]string, 0, len(events)+7)
	lines = append(lines,
		"BEGIN:VCALENDAR",
		prodID,
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"X-WR-CALNAME:"+name,
		"METHOD:PUBLISH",
	)
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\n") + "\n"
}
