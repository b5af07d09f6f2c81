package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"goampute/domain/pattern"
	"goampute/internal/errors"
)

// PatternSet is a YAML pattern descriptor document:
//
//	seed: 42
//	patterns:
//	  - incomplete_vars: [0, 1]
//	    mechanism: MAR
//	    weights: {2: 1.0}
//	    prop: 0.3
//	    kind: LOGISTIC
//
// A bare top-level list of patterns is accepted too.
type PatternSet struct {
	Seed     *uint64           `yaml:"seed,omitempty"`
	Patterns []pattern.Pattern `yaml:"patterns"`
}

// ParsePatterns decodes a YAML pattern descriptor. Pattern semantics are
// checked later by pattern.ValidateSet.
func ParsePatterns(data []byte) (*PatternSet, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse patterns: %w", err))
	}
	if len(root.Content) == 0 {
		return nil, errors.ConfigInvalid("pattern document is empty")
	}

	set := &PatternSet{}
	doc := root.Content[0]
	var err error
	if doc.Kind == yaml.SequenceNode {
		err = doc.Decode(&set.Patterns)
	} else {
		err = doc.Decode(set)
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("decode patterns: %w", err))
	}
	if len(set.Patterns) == 0 {
		return nil, errors.ConfigInvalid("pattern document lists no patterns")
	}
	return set, nil
}

// MarshalPatterns encodes patterns in the ParsePatterns document format
func MarshalPatterns(set PatternSet) ([]byte, error) {
	out, err := yaml.Marshal(set)
	if err != nil {
		return nil, errors.Wrap(err, "encode patterns")
	}
	return out, nil
}
