package classification

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

// Rule maps a header pattern to a canonical product identity. Rules are
// evaluated top-down and the first match wins, so qualified patterns (grade
// plus premium/port/region token) must be listed before their generic
// supersets.
type Rule struct {
	// Code is the canonical product code assigned on match.
	Code string `yaml:"code"`
	// Name is the display name.
	Name string `yaml:"name"`
	// Unit is the quotation unit (BBL, MT).
	Unit string `yaml:"unit"`
	// Region qualifies delivered or regional products; optional.
	Region string `yaml:"region,omitempty"`
	// Match lists tokens that must all be present in the normalized header.
	Match []string `yaml:"match"`
	// Exclude lists tokens that veto the match; used to keep generic rules
	// from absorbing qualified headers when rule order alone is not enough.
	Exclude []string `yaml:"exclude,omitempty"`
}

func (r *Rule) Matches(normalized string) bool {
	for _, token := range r.Match {
		if !strings.Contains(normalized, token) {
			return false
		}
	}
	for _, token := range r.Exclude {
		if strings.Contains(normalized, token) {
			return false
		}
	}
	return true
}

// RuleSet is a versioned, ordered product catalogue.
type RuleSet struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

func (rs *RuleSet) validate() error {
	if len(rs.Rules) == 0 {
		return errors.New("rule set has no rules")
	}
	for i, rule := range rs.Rules {
		if rule.Code == "" {
			return fmt.Errorf("rule %d has no product code", i)
		}
		if len(rule.Match) == 0 {
			return fmt.Errorf("rule %s has no match tokens", rule.Code)
		}
		for j, token := range rule.Match {
			rs.Rules[i].Match[j] = strings.ToUpper(strings.TrimSpace(token))
		}
		for j, token := range rule.Exclude {
			rs.Rules[i].Exclude[j] = strings.ToUpper(strings.TrimSpace(token))
		}
	}
	return nil
}

// LoadRuleSet parses a YAML catalogue and normalizes its match tokens.
func LoadRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, errors.Wrap(err, "failed to parse rule set")
	}
	if err := rs.validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadRuleSetFile reads a catalogue override from disk.
func LoadRuleSetFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read rule set file")
	}
	return LoadRuleSet(data)
}
