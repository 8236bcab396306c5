package ics

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildCalendar(t *testing.T) {
	events := []string{
		"BEGIN:VEVENT\nUID:1\nSUMMARY:first\nEND:VEVENT",
		"BEGIN:VEVENT\nUID:2\nSUMMARY:second\nEND:VEVENT",
	}

	doc := BuildCalendar("Familjen", events)

	want := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"PRODID:-//familjekalender//github//",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"X-WR-CALNAME:Familjen",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:1",
		"SUMMARY:first",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2",
		"SUMMARY:second",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n") + "\n"

	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("BuildCalendar() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCalendarEmpty(t *testing.T) {
	doc := BuildCalendar("Tom", nil)

	if !strings.HasSuffix(doc, "END:VCALENDAR\n") {
		t.Errorf("document not newline-terminated: %q", doc)
	}
	if strings.Contains(doc, "VEVENT") {
		t.Errorf("empty calendar contains events: %q", doc)
	}
}
