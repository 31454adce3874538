// Package tolerance evaluates tolerance-band rules for structured-output
// comparison. A rule has the form
//
//	<field-glob> <abs|rel> <threshold>
//
// e.g. "FLNT abs 1e-9" or "T* rel 1e-12". The first rule whose pattern
// matches a field decides that field's band. Fields matching no rule demand
// exact equality.
package tolerance

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind selects which deviation a rule bounds.
type Kind string

const (
	Abs Kind = "abs" // Max absolute deviation
	Rel Kind = "rel" // Max relative deviation
)

// Rule bounds the allowed deviation for fields matching Pattern.
type Rule struct {
	Pattern   string
	Kind      Kind
	Threshold float64
}

// RuleSet is an ordered list of rules; earlier rules win.
type RuleSet struct {
	rules []Rule
}

// ParseRule parses a single "<glob> <abs|rel> <threshold>" rule.
func ParseRule(s string) (Rule, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Rule{}, fmt.Errorf("bad tolerance rule %q: want '<pattern> <abs|rel> <threshold>'", s)
	}

	kind := Kind(fields[1])
	if kind != Abs && kind != Rel {
		return Rule{}, fmt.Errorf("bad tolerance rule %q: unknown kind %q", s, fields[1])
	}

	threshold, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Rule{}, fmt.Errorf("bad tolerance rule %q: %w", s, err)
	}
	if threshold < 0 {
		return Rule{}, fmt.Errorf("bad tolerance rule %q: negative threshold", s)
	}

	return Rule{Pattern: fields[0], Kind: kind, Threshold: threshold}, nil
}

// ParseRules parses an ordered rule list.
func ParseRules(lines []string) (RuleSet, error) {
	var rs RuleSet
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := ParseRule(line)
		if err != nil {
			return RuleSet{}, err
		}
		rs.rules = append(rs.rules, rule)
	}
	return rs, nil
}

// Check reports whether a field's deviations fall inside its tolerance band,
// and returns the magnitude the verdict was based on. absDev and relDev are
// the field's max absolute and max relative deviations.
func (rs RuleSet) Check(field string, absDev, relDev float64) (magnitude float64, within bool) {
	for _, rule := range rs.rules {
		if !MatchGlob(rule.Pattern, field) {
			continue
		}
		switch rule.Kind {
		case Rel:
			return relDev, relDev <= rule.Threshold
		default:
			return absDev, absDev <= rule.Threshold
		}
	}
	// No rule: exact equality required
	return absDev, absDev == 0
}

// Len returns the number of rules in the set.
func (rs RuleSet) Len() int {
	return len(rs.rules)
}

// MatchGlob checks if a field name matches a glob pattern. * matches any
// sequence of characters; patterns without * only match exact strings.
func MatchGlob(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}

	parts := strings.Split(pattern, "*")
	pos := 0

	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(value[pos:], part)
		if idx == -1 {
			return false
		}
		if i == 0 && !strings.HasPrefix(pattern, "*") && idx != 0 {
			return false
		}
		pos += idx + len(part)
	}

	if !strings.HasSuffix(pattern, "*") {
		last := parts[len(parts)-1]
		if last != "" && !strings.HasSuffix(value, last) {
			return false
		}
	}

	return true
}
