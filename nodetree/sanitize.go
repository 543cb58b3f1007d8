package nodetree

import "strings"

// reserved are identifiers the mirrored object model claims for itself, plus
// the Go keywords, since sanitized names are also emitted into generated
// source by cmd/zigen.  A raw path segment that collides with one of these
// gets a single trailing underscore; the raw segment survives in the
// Descriptor so forwarding always uses the exact original path.
var reserved = map[string]struct{}{
	// claimed by the object model
	"session": {}, "serial": {}, "name": {}, "path": {}, "describe": {},
	"root": {}, "child": {}, "parameter": {}, "index": {}, "items": {},
	// Go keywords
	"break": {}, "case": {}, "chan": {}, "const": {}, "continue": {},
	"default": {}, "defer": {}, "else": {}, "fallthrough": {}, "for": {},
	"func": {}, "go": {}, "goto": {}, "if": {}, "import": {},
	"interface": {}, "map": {}, "package": {}, "range": {}, "return": {},
	"select": {}, "struct": {}, "switch": {}, "type": {}, "var": {},
}

// Sanitize maps a raw path segment to its canonical identifier.  Purely
// numeric segments are array indices and pass through untouched; segments
// leading with a digit are prefixed with an underscore; reserved identifiers
// get a trailing underscore.  The mapping is stable and, given the segment's
// siblings, invertible (see Desanitize).
func Sanitize(segment string) string {
	s := strings.ToLower(segment)
	if isDigits(s) {
		return s
	}
	if len(s) > 0 && s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	if _, ok := reserved[s]; ok {
		s = s + "_"
	}
	return s
}

// Desanitize recovers the raw segment whose sanitized form is name, given
// the raw sibling segments at that position in the path.  The bool is false
// if no sibling matches.
func Desanitize(siblings []string, name string) (string, bool) {
	for _, raw := range siblings {
		if raw == name || Sanitize(raw) == name {
			return raw, true
		}
	}
	return "", false
}

// Reserved reports whether an identifier is claimed by the object model or
// the language
func Reserved(name string) bool {
	_, ok := reserved[strings.ToLower(name)]
	return ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
