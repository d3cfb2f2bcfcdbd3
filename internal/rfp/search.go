package rfp

import "strings"

// MaxQueryLength caps the accepted query size at the HTTP boundary.
const MaxQueryLength = 256

// NormalizeQuery trims surrounding whitespace and lower-cases the query.
// A blank result means "no query" and matches nothing.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Filter returns the records whose searchable fields contain query as a
// case-insensitive substring, preserving input order. A blank query returns
// an empty, non-nil slice.
func Filter(query string, records []RFP) []RFP {
	out := make([]RFP, 0)
	needle := NormalizeQuery(query)
	if needle == "" {
		return out
	}
	for _, r := range records {
		if matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r RFP, needle string) bool {
	for _, field := range r.SearchableText() {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a normalized needle into a `LIKE ... ESCAPE '\'` pattern
// that matches the needle literally anywhere in the value.
func likePattern(needle string) string {
	return "%" + likeEscaper.Replace(needle) + "%"
}
