package ics

import (
	"strings"
	"testing"
)

func TestExtractUID(t *testing.T) {
	block := "BEGIN:VEVENT\nUID:abc-123\nSUMMARY:x\nEND:VEVENT"
	if uid, ok := ExtractUID(block); !ok || uid != "abc-123" {
		t.Errorf("ExtractUID = %q, %v; want %q, true", uid, ok, "abc-123")
	}

	block = "BEGIN:VEVENT\nUID: padded \nEND:VEVENT"
	if uid, ok := ExtractUID(block); !ok || uid != "padded" {
		t.Errorf("ExtractUID with padding = %q, %v; want %q, true", uid, ok, "padded")
	}

	block = "BEGIN:VEVENT\nSUMMARY:no uid\nEND:VEVENT"
	if uid, ok := ExtractUID(block); ok {
		t.Errorf("ExtractUID with no UID line = %q, true; want absent", uid)
	}
}

func TestSyntheticUID(t *testing.T) {
	a := "BEGIN:VEVENT\nSUMMARY:x\nEND:VEVENT"
	b := "BEGIN:VEVENT\nSUMMARY:y\nEND:VEVENT"

	if !strings.HasPrefix(SyntheticUID(a), "NOUID-") {
		t.Errorf("SyntheticUID(%q) = %q; expected NOUID- prefix", a, SyntheticUID(a))
	}
	if SyntheticUID(a) != SyntheticUID(a) {
		t.Error("SyntheticUID is not deterministic for identical blocks")
	}
	if SyntheticUID(a) == SyntheticUID(b) {
		t.Error("SyntheticUID collided for different blocks")
	}
}

func TestExtractDTStart(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  string
	}{
		{
			name:  "plain UTC timestamp",
			block: "BEGIN:VEVENT\nDTSTART:20240102T090000Z\nEND:VEVENT",
			want:  "20240102T090000Z",
		},
		{
			name:  "parameters before the colon are ignored",
			block: "BEGIN:VEVENT\nDTSTART;TZID=Europe/Stockholm:20240102T090000\nEND:VEVENT",
			want:  "20240102T090000",
		},
		{
			name:  "date value form",
			block: "BEGIN:VEVENT\nDTSTART;VALUE=DATE:20240102\nEND:VEVENT",
			want:  "20240102",
		},
		{
			name:  "missing DTSTART sorts last",
			block: "BEGIN:VEVENT\nUID:1\nEND:VEVENT",
			want:  MaxDTStart,
		},
		{
			name:  "non-timestamp value falls through to sentinel",
			block: "BEGIN:VEVENT\nDTSTART:oops\nEND:VEVENT",
			want:  MaxDTStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDTStart(tt.block); got != tt.want {
				t.Errorf("ExtractDTStart = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestCalendarName(t *testing.T) {
	doc := "BEGIN:VCALENDAR\nPRODID:-//Vendor//SV//\nX-WR-CALNAME:Familjen\nEND:VCALENDAR\n"
	if name, ok := CalendarName(doc); !ok || name != "Familjen" {
		t.Errorf("CalendarName = %q, %v; want %q, true", name, ok, "Familjen")
	}

	doc = "BEGIN:VCALENDAR\nPRODID:-//Vendor//SV//\nEND:VCALENDAR\n"
	if name, ok := CalendarName(doc); !ok || name != "-//Vendor//SV//" {
		t.Errorf("CalendarName fallback = %q, %v; want PRODID value, true", name, ok)
	}

	doc = "BEGIN:VCALENDAR\nVERSION:2.0\nEND:VCALENDAR\n"
	if name, ok := CalendarName(doc); ok {
		t.Errorf("CalendarName with no name = %q, true; want absent", name)
	}

	// A folded calendar name must be reassembled before extraction.
	doc = "BEGIN:VCALENDAR\nX-WR-CALNAME:Familje\n kalendern\nEND:VCALENDAR\n"
	if name, ok := CalendarName(doc); !ok || name != "Familjekalendern" {
		t.Errorf("CalendarName folded = %q, %v; want %q, true", name, ok, "Familjekalendern")
	}
}
