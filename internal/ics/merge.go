package ics

import (
	"sort"

	appLog "github.com/BennyTheCop-HazeTaze/familjekalender/internal/log"
)

// Input is one fetched source ready for merging: its configured label
// (may be empty) and the decoded document text. Inputs must be in the
// caller's configured source order; label precedence and first-seen
// deduplication both depend on it.
type Input struct {
	Label string
	Body  string
}

// Report summarizes one merge run.
type Report struct {
	EventsEmitted int
	SourcesMerged int
}

// Merge runs the core pipeline over the given sources, strictly in
// order. For each source it resolves the effective label (configured
// label, else the document's declared calendar name, else none),
// extracts the VEVENT blocks, discards any block whose identity was
// already seen in an earlier source or earlier in this one, labels the
// survivors, and finally stable-sorts the combined list by DTSTART as
// a plain string comparison.
//
// Identity and sort state live entirely in this call; concurrent
// merges over different inputs do not interfere.
func Merge(inputs []Input) ([]string, Report) {
	seen := make(map[string]struct{})
	var events []string

	for _, in := range inputs {
		label := in.Label
		if label == "" {
			if name, ok := CalendarName(in.Body); ok {
				label = name
			}
		}

		blocks := EventBlocks(Unfold(in.Body))
		kept := 0
		for _, block := range blocks {
			uid, ok := ExtractUID(block)
			if !ok {
				uid = SyntheticUID(block)
			}
			if _, dup := seen[uid]; dup {
				continue
			}
			seen[uid] = struct{}{}
			events = append(events, LabelSummary(block, label))
			kept++
		}
		appLog.Debug("source merged", "label", label, "events", len(blocks), "kept", kept)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return ExtractDTStart(events[i]) < ExtractDTStart(events[j])
	})

	return events, Report{EventsEmitted: len(events), SourcesMerged: len(inputs)}
}
