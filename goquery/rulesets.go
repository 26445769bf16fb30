package goquery

import (
	"bytes"
	_ "embed"
	"io"
	"os"

	"github.com/pagesift/pagesift"
	"gopkg.in/yaml.v3"
)

//go:embed rulesets.yaml
var defaultRuleSetsYAML []byte

// DefaultRuleSets returns the built-in rule sets.
func DefaultRuleSets() ([]pagesift.RuleSet, error) {
	return LoadRuleSets(bytes.NewReader(defaultRuleSetsYAML))
}

// LoadRuleSets parses and validates rule sets from YAML.
func LoadRuleSets(r io.Reader) ([]pagesift.RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules []pagesift.RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, pagesift.Errorf(pagesift.EINVALID, "failed to parse rule sets: %v", err)
	}

	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, err
		}
	}

	return rules, nil
}

// LoadRuleSetsFile loads rule sets from a YAML file.
func LoadRuleSetsFile(path string) ([]pagesift.RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRuleSets(f)
}
