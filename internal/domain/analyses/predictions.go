package analyses

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePredictions turns the predictions fields of a form into the string
// stored on the record.
//
// A single plain "predictions" value passes through unchanged. Repeated
// plain values become a JSON array. Bracket keys such as
// "predictions[0][label]" or "predictions[]" are assembled into a nested
// value and serialised as canonical JSON. When plain and bracket keys are
// both present the plain values win. Returns nil when no predictions field
// was sent.
func ParsePredictions(fields []FormField) (*string, error) {
	var plain []string
	root := map[string]any{}
	structured := false

	for _, f := range fields {
		segs, ok := predictionsPath(f.Name)
		if !ok {
			continue
		}
		if len(segs) == 0 {
			plain = append(plain, f.Value)
			continue
		}
		structured = true
		insert(root, segs, f.Value)
	}

	switch {
	case len(plain) == 1:
		s := plain[0]
		return &s, nil
	case len(plain) > 1:
		return marshalString(plain)
	case structured:
		return marshalString(normalize(root))
	}
	return nil, nil
}

func marshalString(v any) (*string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serialize predictions: %w", err)
	}
	s := string(b)
	return &s, nil
}

// MaxPredictionDepth caps the bracket segments of a predictions field name.
// Deeper names are ignored.
const MaxPredictionDepth = 20

// predictionsPath splits "predictions[a][b]" into ["a", "b"]. ok is false for
// names that are not predictions fields, carry an unbalanced bracket or nest
// deeper than MaxPredictionDepth.
func predictionsPath(name string) (segs []string, ok bool) {
	if !strings.HasPrefix(name, FieldPredictions) {
		return nil, false
	}
	rest := name[len(FieldPredictions):]
	for rest != "" {
		if rest[0] != '[' || len(segs) == MaxPredictionDepth {
			return nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, false
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	return segs, true
}

func insert(node map[string]any, segs []string, value string) {
	key := segs[0]
	if key == "" {
		key = strconv.Itoa(nextIndex(node))
	}

	if len(segs) == 1 {
		switch cur := node[key].(type) {
		case nil:
			node[key] = value
		case string:
			node[key] = []any{cur, value}
		case []any:
			node[key] = append(cur, value)
		}
		// a leaf sent under a key that already holds an object is dropped
		return
	}

	child, ok := node[key].(map[string]any)
	if !ok {
		if node[key] != nil {
			return
		}
		child = map[string]any{}
		node[key] = child
	}
	insert(child, segs[1:], value)
}

// nextIndex is one past the highest integer key in node, or 0.
func nextIndex(node map[string]any) int {
	next := 0
	for k := range node {
		if i, err := strconv.Atoi(k); err == nil && i >= next && i < math.MaxInt {
			next = i + 1
		}
	}
	return next
}

// normalize turns objects keyed exactly 0..n-1 into arrays.
func normalize(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = normalize(child)
	}
	if len(m) == 0 {
		return m
	}
	arr := make([]any, len(m))
	for i := range arr {
		child, ok := m[strconv.Itoa(i)]
		if !ok {
			return m
		}
		arr[i] = child
	}
	return arr
}
