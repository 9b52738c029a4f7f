package curriculum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
levels:
  - level: I
    topics:
      - name: Ethical and Professional Standards
        weight_min: 15
        weight_max: 20
        readings:
          - Code of Ethics and Standards of Professional Conduct
      - name: Fixed Income
        weight_min: 11
        weight_max: 14
  - level: II
    topics:
      - name: Equity Valuation
        weight_min: 10
        weight_max: 15
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	topics, err := Load(path)
	require.NoError(t, err)
	require.Len(t, topics, 3)
	assert.Equal(t, "I", topics[0].Level)
	assert.Equal(t, "Ethical and Professional Standards", topics[0].Name)
	assert.Len(t, topics[0].Readings, 1)
	assert.Equal(t, "II", topics[2].Level)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"no levels":      "levels: []",
		"bad level":      "levels:\n  - level: IV\n    topics: []",
		"unnamed topic":  "levels:\n  - level: I\n    topics:\n      - weight_min: 1\n        weight_max: 2",
		"inverted range": "levels:\n  - level: I\n    topics:\n      - name: Quant\n        weight_min: 9\n        weight_max: 6",
		"duplicate":      "levels:\n  - level: I\n    topics:\n      - name: Quant\n      - name: Quant",
		"not yaml":       "levels: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestExampleCurriculumParses(t *testing.T) {
	topics, err := Load(filepath.Join("..", "..", "configs", "curriculum.example.yaml"))
	require.NoError(t, err)
	assert.Len(t, topics, 10)

	var total float64
	for _, tp := range topics {
		total += tp.WeightMin
	}
	assert.LessOrEqual(t, total, 100.0)
}
