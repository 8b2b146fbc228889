package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"local form", "0512345678", true},
		{"bare country code", "966512345678", true},
		{"plus country code", "+966512345678", true},
		{"double zero country code", "00966512345678", true},
		{"spaces stripped", "0512 345 678", true},
		{"hyphens stripped", "051-234-5678", true},
		{"plus form with spaces", "+966 51 234 5678", true},
		{"too few digits", "051234567", false},
		{"too many digits", "05123456789", false},
		{"landline shaped", "0112345678", false},
		{"country code landline", "966112345678", false},
		{"missing leading five", "0612345678", false},
		{"letters", "05abc45678", false},
		{"arbitrary text", "not a phone", false},
		{"empty", "", false},
		{"plus in the middle", "05+12345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	// Every accepted spelling of the same number reduces to one canonical
	// string.
	forms := []string{
		"0512345678",
		"966512345678",
		"+966512345678",
		"00966512345678",
		"0512 345 678",
		"+966 512-345-678",
	}
	for _, f := range forms {
		assert.Equal(t, "0512345678", Normalize(f), "input %q", f)
	}
}

func TestNormalizeUnrecognizedInputPassesThrough(t *testing.T) {
	tests := []string{
		"0112345678",   // landline, no 05 after stripping
		"966112345678", // country code but not mobile
		"garbage",
		"",
	}
	for _, input := range tests {
		assert.Equal(t, input, Normalize(input), "input %q", input)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	canonical := Normalize("+966512345678")
	assert.Equal(t, canonical, Normalize(canonical))
}
