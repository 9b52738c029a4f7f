// Package curriculum reads the CFA topic map from YAML.
package curriculum

import (
	"fmt"
	"os"
	"strings"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/store"
	"gopkg.in/yaml.v3"
)

// File is the on-disk curriculum layout
type File struct {
	Levels []Level `yaml:"levels"`
}

// Level lists the topics of one exam level
type Level struct {
	Level  string  `yaml:"level"`
	Topics []Topic `yaml:"topics"`
}

// Topic is a topic area with its exam weight range in percent
type Topic struct {
	Name      string   `yaml:"name"`
	WeightMin float64  `yaml:"weight_min"`
	WeightMax float64  `yaml:"weight_max"`
	Readings  []string `yaml:"readings"`
}

// Load reads and validates a curriculum file
func Load(path string) ([]store.CurriculumTopic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	return Parse(data)
}

// Parse validates curriculum YAML and flattens it into store rows
func Parse(data []byte) ([]store.CurriculumTopic, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	if len(f.Levels) == 0 {
		return nil, fmt.Errorf("curriculum has no levels")
	}

	seen := make(map[string]bool)
	var topics []store.CurriculumTopic
	for _, lvl := range f.Levels {
		if !domain.ValidLevel(lvl.Level) {
			return nil, fmt.Errorf("unknown level %q (want I, II or III)", lvl.Level)
		}
		for _, t := range lvl.Topics {
			name := strings.TrimSpace(t.Name)
			if name == "" {
				return nil, fmt.Errorf("level %s: topic without a name", lvl.Level)
			}
			if t.WeightMin < 0 || t.WeightMax > 100 || t.WeightMin > t.WeightMax {
				return nil, fmt.Errorf("level %s topic %q: bad weight range %.0f-%.0f", lvl.Level, name, t.WeightMin, t.WeightMax)
			}
			key := lvl.Level + "/" + name
			if seen[key] {
				return nil, fmt.Errorf("level %s: duplicate topic %q", lvl.Level, name)
			}
			seen[key] = true

			topics = append(topics, store.CurriculumTopic{
				Level:     lvl.Level,
				Name:      name,
				WeightMin: t.WeightMin,
				WeightMax: t.WeightMax,
				Readings:  t.Readings,
			})
		}
	}
	return topics, nil
}
