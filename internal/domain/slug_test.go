package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Duration & Convexity: A Primer", "duration-convexity-a-primer"},
		{"  CFA Level II -- Equity  ", "cfa-level-ii-equity"},
		{"Café Économie", "caf-conomie"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	slug := Slugify(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(slug), 80)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidLevel(LevelII))
	assert.False(t, ValidLevel("IV"))
	assert.True(t, ValidDifficulty(DifficultyHard))
	assert.False(t, ValidDifficulty("extreme"))
}
