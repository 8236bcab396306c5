package ics

import "strings"

// LabelSummary returns a copy of the block with its first SUMMARY line
// rewritten: the value is run through RepairMojibake and, when label is
// non-empty, prefixed with "[label] ". The prefix is skipped when the
// value already starts with any "[...] " prefix, so re-merging an
// already-labeled feed never stacks labels. Every other line, and any
// further SUMMARY lines, pass through untouched.
func LabelSummary(block, label string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		cl, ok := ParseContentLine(line)
		if !ok || cl.Name != "SUMMARY" {
			continue
		}
		value := RepairMojibake(cl.Value)
		if label != "" && !hasBracketPrefix(value) {
			value = "[" + label + "] " + value
		}
		lines[i] = line[:len(line)-len(cl.Value)] + value
		break
	}
	return strings.Join(lines, "\n")
}

// hasBracketPrefix reports whether v starts with "[x] " for any
// non-empty x, the guard that keeps labeling idempotent. It also
// suppresses labeling of summaries whose original author already used
// a bracket prefix; that ambiguity is accepted.
func hasBracketPrefix(v string) bool {
	if !strings.HasPrefix(v, "[") {
		return false
	}
	end := strings.IndexByte(v, ']')
	if end < 2 || end+1 >= len(v) {
		return false
	}
	return v[end+1] == ' ' || v[end+1] == '\t'
}
