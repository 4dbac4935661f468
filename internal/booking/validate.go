package booking

import (
	"regexp"
	"strings"
)

// emailPattern accepts a conventional local@domain.tld shape: at least
// one non-whitespace, non-@ character before the @, and a dot-delimited
// label after it.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// rules maps each format-governed field to its validity predicate.
// Fields absent from this map (car-year, date, time, symptom) are
// checked by non-emptiness at the gating step instead.
var rules = map[Field]func(string) bool{
	FieldFirstName:    minTrimmedLen(2),
	FieldLastName:     minTrimmedLen(2),
	FieldEmail:        func(v string) bool { return emailPattern.MatchString(v) },
	FieldMobileNumber: func(v string) bool { return len(digitsOnly(v)) >= 10 },
	FieldCarMake:      minTrimmedLen(2),
	FieldCarModel:     minTrimmedLen(1),
}

// Governed reports whether a field has a format rule.
func Governed(f Field) bool {
	_, ok := rules[f]
	return ok
}

// Validate applies the field's format rule. The second return value is
// false when the field has no rule; such calls are routed around, never
// treated as errors.
func Validate(f Field, value string) (valid, governed bool) {
	rule, ok := rules[f]
	if !ok {
		return false, false
	}
	return rule(value), true
}

func minTrimmedLen(n int) func(string) bool {
	return func(v string) bool {
		return len(strings.TrimSpace(v)) >= n
	}
}

func digitsOnly(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsOnly strips every non-digit character from a phone number.
func DigitsOnly(v string) string {
	return digitsOnly(v)
}
