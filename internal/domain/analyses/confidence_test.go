package analyses_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerantelope/predictive-maintenance/internal/domain/analyses"
)

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"0.87", 0.87, true},
		{"  0.5", 0.5, true},
		{"0.87abc", 0.87, true},
		{"-1.25", -1.25, true},
		{".5", 0.5, true},
		{"1e-2", 0.01, true},
		{"1e", 1, true},
		{"42", 42, true},
		{"150", 150, true},
		{"", 0, false},
		{"abc", 0, false},
		{"Infinity", 0, false},
		{"1e400", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := analyses.ParseConfidence(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Value, 1e-12)
			}
		})
	}
}

func TestConfidenceJSON(t *testing.T) {
	b, err := json.Marshal(analyses.ParseConfidence("0.87"))
	require.NoError(t, err)
	assert.Equal(t, "0.87", string(b))

	b, err = json.Marshal(analyses.ParseConfidence("n/a"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var c analyses.Confidence
	require.NoError(t, json.Unmarshal([]byte("0.25"), &c))
	assert.Equal(t, analyses.Confidence{Value: 0.25, Valid: true}, c)
	require.NoError(t, json.Unmarshal([]byte("null"), &c))
	assert.False(t, c.Valid)
}
