package reconciliation

import (
	"regexp"
	"strconv"
	"strings"
)

// NumericFormat makes the extractor's separator conventions explicit
// instead of inheriting them from any runtime locale. The settlement bank
// produces reports with comma grouping and period decimals; anything else
// must be configured deliberately.
type NumericFormat struct {
	GroupSeparator   string
	DecimalSeparator string
}

var DefaultNumericFormat = NumericFormat{GroupSeparator: ",", DecimalSeparator: "."}

type quantityPatterns struct {
	plain   *regexp.Regexp
	grouped *regexp.Regexp
}

func compilePatterns(f NumericFormat) quantityPatterns {
	dec := regexp.QuoteMeta(f.DecimalSeparator)
	grp := regexp.QuoteMeta(f.GroupSeparator)
	return quantityPatterns{
		plain: regexp.MustCompile(`^[0-9]+(?:` + dec + `[0-9]+)?$`),
		// Group separators must sit at exactly every third digit counting
		// from the decimal point. "1,23" is a malformed number, not a
		// number with decoration, and is rejected.
		grouped: regexp.MustCompile(`^[0-9]{1,3}(?:` + grp + `[0-9]{3})+(?:` + dec + `[0-9]+)?$`),
	}
}

var defaultPatterns = compilePatterns(DefaultNumericFormat)

// ExtractQuantity parses a single report cell string into a signed
// quantity. Accepted forms: plain digits with an optional decimal part,
// digits with well-formed group separators, either of those with a single
// leading minus, and the accounting convention of parentheses denoting
// negation. "(1,234.56)" and "-1,234.56" extract to the same value.
//
// ok is false for anything that is not unambiguously numeric: free text,
// "undefined"/"null"/"Infinity", timestamps, empty strings, double decimal
// points, misplaced group separators. Rejection propagates through the
// minus and parenthesis wrappers. "-0" extracts to negative zero and "0"
// to positive zero; both are valid.
//
// Too-permissive parsing here would silently turn a wrong bank-supplied
// number into a plausible-looking one, which is exactly the failure the
// downstream reconciliation exists to catch.
func ExtractQuantity(s string, f NumericFormat) (value float64, ok bool) {
	pats := defaultPatterns
	if f != DefaultNumericFormat {
		pats = compilePatterns(f)
	}

	neg := false
	switch {
	case len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')':
		neg = true
		s = s[1 : len(s)-1]
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	}

	if !pats.plain.MatchString(s) && !pats.grouped.MatchString(s) {
		return 0, false
	}

	normalized := strings.ReplaceAll(s, f.GroupSeparator, "")
	if f.DecimalSeparator != "." {
		normalized = strings.ReplaceAll(normalized, f.DecimalSeparator, ".")
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
