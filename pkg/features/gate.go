// Package features implements the feature constraint gate: every raw
// feature mapping entering the pipeline is filtered against a fixed
// allow-list before any model sees it.
package features

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// Feature is one allow-listed key/value pair in stable allow-list order.
type Feature struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Gate filters raw feature mappings against an allow-list. It is a pure
// filter: extra fields are ignored, missing required fields are an
// error, and the output order always follows the allow-list.
type Gate struct {
	names   []string
	allowed map[string]bool
}

// New builds a gate from an ordered list of allowed feature names.
func New(names []string) *Gate {
	allowed := make(map[string]bool, len(names))
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || allowed[name] {
			continue
		}
		allowed[name] = true
		ordered = append(ordered, name)
	}
	return &Gate{names: ordered, allowed: allowed}
}

// Load reads a newline-delimited allow-list file. Blank lines and lines
// starting with '#' are skipped.
func Load(path string) (*Gate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open allow-list: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allow-list: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("allow-list %s contains no feature names", path)
	}
	return New(names), nil
}

// Names returns the allowed feature names in stable order.
func (g *Gate) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Allowed reports whether the feature name is on the allow-list.
func (g *Gate) Allowed(name string) bool {
	return g.allowed[name]
}

// Apply restricts a raw feature mapping to the allowed keys in stable
// order. Every allow-listed feature must be present in the raw input;
// a missing one yields a DisallowedFeatureError. Keys outside the
// allow-list are dropped without error.
func (g *Gate) Apply(raw map[string]string) ([]Feature, error) {
	out := make([]Feature, 0, len(g.names))
	for _, name := range g.names {
		value, ok := raw[name]
		if !ok {
			return nil, &models.DisallowedFeatureError{Feature: name}
		}
		out = append(out, Feature{Name: name, Value: value})
	}
	return out, nil
}

// FilterColumns maps a CSV header to the indices of allowed columns in
// header order, for trimming raw matchup files down to model inputs.
func (g *Gate) FilterColumns(header []string) []int {
	var indices []int
	for i, col := range header {
		if g.allowed[strings.TrimSpace(col)] {
			indices = append(indices, i)
		}
	}
	return indices
}
