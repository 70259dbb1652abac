package pipeline

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// MaxRequiredSkills caps the keywords inferred from one job description.
const MaxRequiredSkills = 15

// Category groups related skill keywords.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Catalogue is an ordered set of keyword categories.
type Catalogue struct {
	Categories []Category `yaml:"categories"`
}

// LoadCatalogue parses a YAML catalogue.
func LoadCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("parse catalogue: no categories")
	}
	return &c, nil
}

var (
	defaultCatalogueOnce sync.Once
	defaultCatalogue     *Catalogue
)

// DefaultCatalogue returns the embedded catalogue. It panics if the embedded
// data is malformed.
func DefaultCatalogue() *Catalogue {
	defaultCatalogueOnce.Do(func() {
		c, err := LoadCatalogue(catalogueYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalogue = c
	})
	return defaultCatalogue
}

// Match returns the keywords found in text, in catalogue order, deduplicated
// and capped at limit (no cap when limit <= 0).
func (c *Catalogue) Match(text string, limit int) []string {
	found := []string{}
	if c == nil || strings.TrimSpace(text) == "" {
		return found
	}
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	for _, cat := range c.Categories {
		for _, kw := range cat.Keywords {
			if _, dup := seen[kw]; dup {
				continue
			}
			if !strings.Contains(lower, strings.ToLower(kw)) {
				continue
			}
			seen[kw] = struct{}{}
			found = append(found, kw)
			if limit > 0 && len(found) == limit {
				return found
			}
		}
	}
	return found
}
