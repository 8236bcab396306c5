package ics

import (
	"strings"
	"testing"

	ical "github.com/arran4/golang-ical"
	"github.com/google/go-cmp/cmp"
)

func feed(name string, events ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\nVERSION:2.0\n")
	if name != "" {
		b.WriteString("X-WR-CALNAME:" + name + "\n")
	}
	for _, e := range events {
		b.WriteString(e + "\n")
	}
	b.WriteString("END:VCALENDAR\n")
	return b.String()
}

func event(uid, dtstart, summary string) string {
	return "BEGIN:VEVENT\nUID:" + uid + "\nDTSTART:" + dtstart + "\nSUMMARY:" + summary + "\nEND:VEVENT"
}

func TestMergeDedupFirstSeenWins(t *testing.T) {
	a := feed("", event("X-1", "20240101T100000Z", "From A"))
	b := feed("", event("X-1", "20240101T100000Z", "From B"), event("X-2", "20240102T100000Z", "Only B"))

	events, rep := Merge([]Input{
		{Label: "A", Body: a},
		{Label: "B", Body: b},
	})

	if rep.EventsEmitted != 2 || rep.SourcesMerged != 2 {
		t.Fatalf("report = %+v; want 2 events from 2 sources", rep)
	}
	var summaries []string
	for _, e := range events {
		for _, line := range strings.Split(e, "\n") {
			if strings.HasPrefix(line, "SUMMARY") {
				summaries = append(summaries, line)
			}
		}
	}
	want := []string{"SUMMARY:[A] From A", "SUMMARY:[B] Only B"}
	if diff := cmp.Diff(want, summaries); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeSortsByDTStart(t *testing.T) {
	body := feed("",
		event("1", "20240105T100000Z", "late"),
		event("2", "20240102T100000Z", "mid"),
		event("3", "20240102T090000Z", "early"),
	)

	events, _ := Merge([]Input{{Body: body}})

	var starts []string
	for _, e := range events {
		starts = append(starts, ExtractDTStart(e))
	}
	want := []string{"20240102T090000Z", "20240102T100000Z", "20240105T100000Z"}
	if diff := cmp.Diff(want, starts); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeUndatedEventsSortLast(t *testing.T) {
	body := feed("",
		"BEGIN:VEVENT\nUID:undated\nSUMMARY:no start\nEND:VEVENT",
		event("dated", "20240101T000000Z", "dated"),
	)

	events, _ := Merge([]Input{{Body: body}})
	if len(events) != 2 {
		t.Fatalf("got %d events; want 2", len(events))
	}
	if uid, _ := ExtractUID(events[1]); uid != "undated" {
		t.Errorf("undated event sorted at %q position; want last", uid)
	}
}

func TestMergeLabelFallsBackToCalendarName(t *testing.T) {
	body := feed("Lagkalendern", event("1", "20240101T000000Z", "Match"))

	events, _ := Merge([]Input{{Body: body}})
	if len(events) != 1 || !strings.Contains(events[0], "SUMMARY:[Lagkalendern] Match") {
		t.Errorf("calendar-name label not applied: %q", events)
	}

	// No explicit label, no declared name: summary stays bare.
	events, _ = Merge([]Input{{Body: feed("", event("2", "20240101T000000Z", "Match"))}})
	if len(events) != 1 || !strings.Contains(events[0], "SUMMARY:Match") {
		t.Errorf("unlabeled summary mangled: %q", events)
	}
}

func TestMergeDedupWithoutUIDs(t *testing.T) {
	evt := "BEGIN:VEVENT\nDTSTART:20240101T000000Z\nSUMMARY:same text\nEND:VEVENT"
	body := feed("", evt, evt)

	events, rep := Merge([]Input{{Body: body}})
	if rep.EventsEmitted != 1 || len(events) != 1 {
		t.Errorf("identical UID-less blocks not deduplicated: %d events", len(events))
	}
}

func TestMergeOrderIsStableForEqualKeys(t *testing.T) {
	body := feed("",
		event("a", "20240101T000000Z", "first"),
		event("b", "20240101T000000Z", "second"),
		event("c", "20240101T000000Z", "third"),
	)

	events, _ := Merge([]Input{{Body: body}})
	var uids []string
	for _, e := range events {
		uid, _ := ExtractUID(e)
		uids = append(uids, uid)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, uids); diff != "" {
		t.Errorf("equal-key order not stable (-want +got):\n%s", diff)
	}
}

// End-to-end: two sources, dedup, labeling, sorting, and a final
// document that a real iCalendar parser accepts.
func TestMergeEndToEnd(t *testing.T) {
	srcA := feed("", event("E1", "20240101T000000Z", "Party"))
	srcB := feed("", event("E2", "20231231T000000Z", "Eve"))

	events, rep := Merge([]Input{
		{Label: "A", Body: srcA},
		{Label: "B", Body: srcB},
	})
	doc := BuildCalendar("Sammanslagen kalender", events)

	if rep.EventsEmitted != 2 {
		t.Fatalf("EventsEmitted = %d; want 2", rep.EventsEmitted)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("merged document does not parse: %v", err)
	}

	parsed := cal.Events()
	if len(parsed) != 2 {
		t.Fatalf("parsed %d events; want 2", len(parsed))
	}

	type row struct{ UID, Summary string }
	var got []row
	for _, ev := range parsed {
		got = append(got, row{
			UID:     ev.GetProperty(ical.ComponentPropertyUniqueId).Value,
			Summary: ev.GetProperty(ical.ComponentPropertySummary).Value,
		})
	}
	want := []row{
		{UID: "E2", Summary: "[B] Eve"},
		{UID: "E1", Summary: "[A] Party"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged events mismatch (-want +got):\n%s", diff)
	}
}

// A source that failed to fetch is simply absent from the inputs; the
// merge still carries the remaining sources.
func TestMergePartialSources(t *testing.T) {
	srcA := feed("", event("E1", "20240101T000000Z", "Party"))

	events, rep := Merge([]Input{{Label: "A", Body: srcA}})
	if rep.SourcesMerged != 1 || rep.EventsEmitted != 1 {
		t.Fatalf("report = %+v; want one source, one event", rep)
	}
	if uid, _ := ExtractUID(events[0]); uid != "E1" {
		t.Errorf("surviving event UID = %q; want E1", uid)
	}
}
