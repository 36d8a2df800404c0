// Package securitystandard aggregates vulnerabilities and security hotspots
// by OWASP Top 10 and SANS Top 25 category.
package securitystandard

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"basegraph.app/issuesearch/internal/model"
)

const (
	OwaspTop10 = "owaspTop10"
	SansTop25  = "sansTop25"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Category struct {
	Key   string `yaml:"key"`
	Title string `yaml:"title"`
}

// Standard is one taxonomy. Field is the issue document field holding its
// category tags.
type Standard struct {
	Key           string     `yaml:"key"`
	Field         string     `yaml:"field"`
	ReportUnknown bool       `yaml:"reportUnknown"`
	Categories    []Category `yaml:"categories"`
}

// CategoryKeys lists the recognized categories in display order.
func (s Standard) CategoryKeys() []string {
	keys := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		keys[i] = c.Key
	}
	return keys
}

// ReportKeys lists the reported categories, unknown included when reported.
func (s Standard) ReportKeys() []string {
	keys := s.CategoryKeys()
	if s.ReportUnknown {
		keys = append(keys, model.UnknownStandard)
	}
	return keys
}

// Catalog is immutable once parsed.
type Catalog struct {
	Version   int        `yaml:"version"`
	Standards []Standard `yaml:"standards"`
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing security standard catalog: %w", err)
	}
	for _, s := range c.Standards {
		if s.Key == "" || s.Field == "" {
			return nil, fmt.Errorf("parsing security standard catalog: standard without key or field")
		}
		if slices.Contains(s.CategoryKeys(), model.UnknownStandard) {
			return nil, fmt.Errorf("parsing security standard catalog: %s declares reserved category %q", s.Key, model.UnknownStandard)
		}
	}
	return &c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	return defaultCatalog()
}

func (c *Catalog) Standard(key string) (Standard, bool) {
	for _, s := range c.Standards {
		if s.Key == key {
			return s, true
		}
	}
	return Standard{}, false
}
