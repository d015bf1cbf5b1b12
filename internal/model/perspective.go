package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Perspective is the (name, prompt fragment) pair consumed by the analyzer.
type Perspective struct {
	Name   string `json:"name" yaml:"name"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// PerspectiveSpec is a perspective as supplied by a caller: either a bare
// predefined name or a custom name/prompt pair. It is resolved to a
// Perspective before reaching the analyzer.
type PerspectiveSpec struct {
	Name   string `json:"name" yaml:"name"`
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// IsCustom reports whether the spec carries its own prompt.
func (s PerspectiveSpec) IsCustom() bool {
	return s.Prompt != ""
}

// UnmarshalJSON accepts either "name" or {"name": ..., "prompt": ...}.
func (s *PerspectiveSpec) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = PerspectiveSpec{Name: name}
		return nil
	}
	var obj struct {
		Name   string `json:"name"`
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return eris.Wrap(err, "perspective spec: expected string or {name, prompt}")
	}
	*s = PerspectiveSpec{Name: obj.Name, Prompt: obj.Prompt}
	return nil
}

// UnmarshalYAML accepts either a scalar name or a {name, prompt} mapping.
func (s *PerspectiveSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = PerspectiveSpec{Name: node.Value}
		return nil
	}
	var obj struct {
		Name   string `yaml:"name"`
		Prompt string `yaml:"prompt"`
	}
	if err := node.Decode(&obj); err != nil {
		return eris.Wrap(err, "perspective spec: expected name or {name, prompt}")
	}
	*s = PerspectiveSpec{Name: obj.Name, Prompt: obj.Prompt}
	return nil
}

// DynamicPerspective is a perspective invented by the perspective generator
// for a specific program.
type DynamicPerspective struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	FocusAreas       []string `json:"focus_areas"`
	KeyQuestions     []string `json:"key_questions"`
	RelevantCriteria []string `json:"relevant_criteria"`
}

// ProgramContext describes the grant program a submission belongs to.
type ProgramContext struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Budget      string `json:"budget,omitempty" yaml:"budget,omitempty"`
}
