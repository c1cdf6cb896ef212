package reconciliation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain integer", "100", 100, true},
		{"plain decimal", "1234.56", 1234.56, true},
		{"grouped integer", "1,234", 1234, true},
		{"grouped decimal", "1,234.56", 1234.56, true},
		{"long grouped", "1,234,567.89", 1234567.89, true},
		{"three digits ungrouped", "999", 999, true},
		{"leading minus plain", "-1234.56", -1234.56, true},
		{"leading minus grouped", "-1,234.56", -1234.56, true},
		{"parenthesized plain", "(1234.56)", -1234.56, true},
		{"parenthesized grouped", "(1,234.56)", -1234.56, true},
		{"zero", "0", 0, true},
		{"decimal with many places", "0.123456", 0.123456, true},

		{"free text", "abc", 0, false},
		{"free text sentence", "whatever", 0, false},
		{"empty string", "", 0, false},
		{"bare minus", "-", 0, false},
		{"empty parens", "()", 0, false},
		{"undefined literal", "undefined", 0, false},
		{"null literal", "null", 0, false},
		{"Null literal", "Null", 0, false},
		{"Infinity literal", "Infinity", 0, false},
		{"Inf literal", "Inf", 0, false},
		{"NaN literal", "NaN", 0, false},
		{"iso timestamp", "2024-03-01T00:00:00.000Z", 0, false},
		{"misplaced group separator", "1,23", 0, false},
		{"group separator too late", "12,3456", 0, false},
		{"two decimal points", "1.2.3", 0, false},
		{"trailing decimal point", "1.", 0, false},
		{"leading decimal point", ".5", 0, false},
		{"internal space", "1 234", 0, false},

		// Rejection propagates through the wrappers.
		{"negated free text", "-abc", 0, false},
		{"parenthesized free text", "(abc)", 0, false},
		{"negated malformed grouping", "-1,23", 0, false},
		{"parenthesized malformed grouping", "(1,23)", 0, false},
		{"parenthesized double decimal", "(1.2.3)", 0, false},
		{"minus then parens", "-(1.5)", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractQuantity(tt.input, DefaultNumericFormat)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractQuantitySignedZero(t *testing.T) {
	neg, ok := ExtractQuantity("-0", DefaultNumericFormat)
	require.True(t, ok)
	assert.Equal(t, 0.0, neg)
	assert.True(t, math.Signbit(neg), "-0 must extract to negative zero")

	pos, ok := ExtractQuantity("0", DefaultNumericFormat)
	require.True(t, ok)
	assert.Equal(t, 0.0, pos)
	assert.False(t, math.Signbit(pos), "0 must extract to positive zero")
}

// Parenthesization must be exactly arithmetic negation of the plain form.
func TestExtractQuantityParensEquivalentToNegation(t *testing.T) {
	inputs := []string{"1", "42", "999", "1,000", "1234.5", "1,234.56", "0.01", "123,456,789.123"}
	for _, s := range inputs {
		plain, ok := ExtractQuantity(s, DefaultNumericFormat)
		require.True(t, ok, s)
		wrapped, ok := ExtractQuantity("("+s+")", DefaultNumericFormat)
		require.True(t, ok, s)
		assert.Equal(t, -plain, wrapped, s)
	}
}

func TestExtractQuantityCustomFormat(t *testing.T) {
	european := NumericFormat{GroupSeparator: ".", DecimalSeparator: ","}

	got, ok := ExtractQuantity("1.234,56", european)
	assert.True(t, ok)
	assert.Equal(t, 1234.56, got)

	got, ok = ExtractQuantity("(1.234,56)", european)
	assert.True(t, ok)
	assert.Equal(t, -1234.56, got)

	// The default conventions are malformed under the European format.
	_, ok = ExtractQuantity("1,234.56", european)
	assert.False(t, ok)
}
