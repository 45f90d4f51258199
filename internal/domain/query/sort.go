package query

import "strings"

// Sort is a single-field ordering. A leading "-" in the textual form means descending.
type Sort struct {
	Field string
	Desc  bool
}

func ParseSort(s string) Sort {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return Sort{Field: strings.TrimSpace(s[1:]), Desc: true}
	}
	return Sort{Field: s}
}

func (s Sort) IsZero() bool { return s.Field == "" }

func (s Sort) String() string {
	if s.IsZero() {
		return ""
	}
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// Desc is shorthand for a descending sort on field.
func Desc(field string) Sort { return Sort{Field: field, Desc: true} }
