package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type file struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a rule set from a YAML file. A missing file yields the
// default rules.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	for i := range f.Rules {
		f.Rules[i].Kind = ParseKind(string(f.Rules[i].Kind))
	}
	return f.Rules, nil
}

// Save validates rs and writes it to path with 0600 permissions.
func Save(path string, rs []Rule) error {
	if err := Validate(rs); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	data, err := yaml.Marshal(file{Rules: rs})
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create rules directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// FromSheet builds rules from a table whose header names the "name",
// "pattern" and "type" columns (any order, case-insensitive). Rows without
// a name are skipped.
func FromSheet(header []string, rows [][]string) ([]Rule, error) {
	idx := map[string]int{"name": -1, "pattern": -1, "type": -1}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[key]; ok {
			idx[key] = i
		}
	}
	if idx["name"] < 0 || idx["pattern"] < 0 {
		return nil, errors.New("sheet must have 'name' and 'pattern' columns")
	}

	cell := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return row[col]
	}

	var rs []Rule
	for _, row := range rows {
		name := strings.TrimSpace(cell(row, idx["name"]))
		if name == "" {
			continue
		}
		rs = append(rs, Rule{
			Name:    name,
			Pattern: cell(row, idx["pattern"]),
			Kind:    ParseKind(cell(row, idx["type"])),
		})
	}
	return rs, nil
}
