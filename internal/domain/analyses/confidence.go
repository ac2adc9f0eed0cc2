package analyses

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Confidence is a parsed topConfidence. Values that do not parse to a
// finite number are sent as null.
type Confidence struct {
	Value float64
	Valid bool
}

// leading decimal literal, the same prefix a lenient float parser accepts
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseConfidence reads the longest numeric prefix of s after leading
// whitespace. "0.87" and "0.87%" both give 0.87; "abc" gives null.
func ParseConfidence(s string) Confidence {
	s = strings.TrimLeft(s, " \t\n\v\f\r\u00a0\ufeff")
	m := numberPrefix.FindString(s)
	if m == "" {
		return Confidence{}
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return Confidence{}
	}
	return Confidence{Value: v, Valid: true}
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Confidence{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Confidence{Value: v, Valid: true}
	return nil
}
