// Package phone validates and normalizes Saudi mobile numbers.
//
// Four textual forms of the same subscriber number are accepted:
// 00966 5XXXXXXXX, 966 5XXXXXXXX, +966 5XXXXXXXX and 05XXXXXXXX.
// The canonical form is the 10-digit local form starting with 05.
package phone

import (
	"regexp"
	"strings"
)

var mobilePattern = regexp.MustCompile(`^(?:00966|966|\+966|0)5[0-9]{8}$`)

var intlPrefixes = []string{"00966", "+966", "966"}

// sanitize strips whitespace and hyphens.
func sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Valid reports whether raw is a Saudi mobile number in any accepted form.
func Valid(raw string) bool {
	return mobilePattern.MatchString(sanitize(raw))
}

// Normalize converts an accepted form to the canonical 05XXXXXXXX form.
// An input already in canonical form passes through unchanged. If the input
// does not reduce to a number starting with 05 the original input is
// returned as-is: normalization is not a validation gate, callers are
// expected to have run Valid first.
func Normalize(raw string) string {
	s := sanitize(raw)
	for _, p := range intlPrefixes {
		if strings.HasPrefix(s, p) {
			s = "0" + strings.TrimPrefix(s, p)
			break
		}
	}
	if !strings.HasPrefix(s, "05") {
		return raw
	}
	return s
}
