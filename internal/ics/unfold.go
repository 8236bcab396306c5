package ics

import "strings"

// Unfold reverses RFC 5545 line folding and returns the document as an
// ordered list of logical lines. A physical line whose first character
// is a space continues the previous logical line; the leading space is
// dropped and the rest is appended verbatim. The very first line can
// never be a continuation since there is nothing to continue.
func Unfold(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}

	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, " ") && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		out = append(out, line)
	}
	return out
}

// ContentLine is one logical iCalendar line split into its property
// name, raw parameter text (everything between the first ';' and the
// ':', without the leading ';'), and value.
type ContentLine struct {
	Name   string
	Params string
	Value  string
}

// ParseContentLine splits a logical line of the form
// "NAME;PARAM=X;PARAM=Y:VALUE". It reports false for lines without a
// colon (BEGIN/END markers still parse; their "value" is the component
// name). Property names are matched case-sensitively by callers.
func ParseContentLine(line string) (ContentLine, bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return ContentLine{}, false
	}
	head, value := line[:i], line[i+1:]

	name, params := head, ""
	if j := strings.IndexByte(head, ';'); j >= 0 {
		name, params = head[:j], head[j+1:]
	}
	return ContentLine{Name: name, Params: params, Value: value}, true
}
