// Package suggest serves the static company-name to ticker lookup used by the
// autocomplete field.
package suggest

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
)

// DefaultLimit caps the number of suggestions returned.
const DefaultLimit = 10

//go:embed suggestions.yaml
var defaultTable []byte

type tableFile struct {
	Companies []models.Suggestion `yaml:"companies"`
}

// Table is an immutable, ordered list of companies.
type Table struct {
	entries []models.Suggestion
}

// Parse reads a YAML company list. Later entries with a name already seen are ignored.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion table: %w", err)
	}

	seen := make(map[string]bool, len(f.Companies))
	entries := make([]models.Suggestion, 0, len(f.Companies))
	for _, c := range f.Companies {
		if c.Name == "" || c.Ticker == "" {
			return nil, fmt.Errorf("suggestion table entry %q/%q is incomplete", c.Name, c.Ticker)
		}
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		entries = append(entries, c)
	}
	return &Table{entries: entries}, nil
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Suggest returns up to limit entries whose name or ticker contains query,
// case-insensitively, in table order. An empty query matches nothing.
func (t *Table) Suggest(query string, limit int) []models.Suggestion {
	matches := []models.Suggestion{}
	q := strings.ToLower(query)
	if q == "" {
		return matches
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	for _, e := range t.entries {
		if strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.Ticker), q) {
			matches = append(matches, e)
			if len(matches) == limit {
				break
			}
		}
	}
	return matches
}

// CompanyName returns the display name of the first entry whose ticker equals
// ticker exactly, or ticker itself.
func (t *Table) CompanyName(ticker string) string {
	for _, e := range t.entries {
		if e.Ticker == ticker {
			return e.Name
		}
	}
	return ticker
}

var _ interfaces.SuggestionService = (*Table)(nil)
