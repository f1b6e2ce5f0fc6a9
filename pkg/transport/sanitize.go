package transport

import "strings"

// sanitizeJSONString strips the UTF-8 replacement character and ASCII
// control bytes a flaky stdio pipe can inject around a JSON payload, then
// trims to the substring between the first `{`/`[` and its matching last
// `}`/`]`. Lines that don't contain a recognizable JSON value sanitize to
// the empty string and are dropped by the caller.
func sanitizeJSONString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '�' {
			continue
		}
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()

	start := strings.IndexAny(cleaned, "{[")
	if start < 0 {
		return ""
	}
	open := cleaned[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}
	end := strings.LastIndexByte(cleaned, closeCh)
	if end < start {
		return ""
	}
	return cleaned[start : end+1]
}
