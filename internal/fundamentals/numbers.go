package fundamentals

import (
	"strconv"
	"strings"
)

// ParseNumber coerces a statement cell into a float64. The exports use
// thousands separators, non-breaking spaces, and accounting-style
// parenthesised negatives; anything unparseable reads as zero, matching
// the "absent ratio is zero" convention of the metric getters.
func ParseNumber(value string) float64 {
	s := strings.TrimSpace(value)
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return parsed
}
