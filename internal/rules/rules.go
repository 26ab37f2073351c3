// Package rules holds the user-authored extraction rules and their
// persistence. The extractor consumes rules by value and never validates
// them; Validate is meant for the configuration boundary.
package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the declared value kind of a rule.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
)

// Names of the columns every extraction result carries.
const (
	ColumnDate  = "Date"
	ColumnTitle = "Titre"
	ColumnHours = "Durée (h)"
)

// Rule pulls one field out of an event title.
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
	Kind    Kind   `yaml:"type" json:"type"`
}

// Defaults returns the rule set a new session starts with.
func Defaults() []Rule {
	return []Rule{
		{Name: "Client", Pattern: `([A-ZÀ-ÿ][a-zà-ÿ]+(?:[\s-][A-ZÀ-ÿ][a-zà-ÿ]+)+)`, Kind: KindText},
		{Name: "Montant", Pattern: `(\d+([.,]\d{1,2})?)\s?(?:€|EUR)`, Kind: KindNumber},
	}
}

// Extended returns the defaults plus a project rule.
func Extended() []Rule {
	return append(Defaults(), Rule{Name: "Projet", Pattern: `Projet\s*:\s*(\w+)`, Kind: KindText})
}

// ParseKind maps user input to a Kind. Anything but "number" is text.
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), string(KindNumber)) {
		return KindNumber
	}
	return KindText
}

// IsFixedColumn reports whether name is one of the fixed result columns.
func IsFixedColumn(name string) bool {
	switch name {
	case ColumnDate, ColumnTitle, ColumnHours:
		return true
	}
	return false
}

// Validate checks a rule set before it is saved. Every problem found is
// returned, joined.
func Validate(rs []Rule) error {
	var errs []error
	seen := make(map[string]int, len(rs))
	for i, r := range rs {
		name := strings.TrimSpace(r.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("rule %d: name is empty", i+1))
		case IsFixedColumn(name):
			errs = append(errs, fmt.Errorf("rule %d: name %q is reserved for a fixed column", i+1, name))
		}
		if prev, ok := seen[name]; ok && name != "" {
			errs = append(errs, fmt.Errorf("rule %d: name %q already used by rule %d", i+1, name, prev+1))
		} else {
			seen[name] = i
		}
		if r.Kind != KindText && r.Kind != KindNumber {
			errs = append(errs, fmt.Errorf("rule %d: unknown type %q", i+1, r.Kind))
		}
	}
	return errors.Join(errs...)
}
