package model

// Form is a submission form with its steps and fields.
type Form struct {
	ID          string     `json:"id" yaml:"id"`
	OrgID       string     `json:"org_id" yaml:"org_id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []FormStep `json:"steps" yaml:"steps"`
}

// FormStep is one page of a multi-step form.
type FormStep struct {
	Index  int         `json:"index" yaml:"index"`
	Title  string      `json:"title" yaml:"title"`
	Fields []FormField `json:"fields" yaml:"fields"`
}

// FormField describes a single input of a form.
type FormField struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`
}

// Fields returns every field of the form in step order.
func (f *Form) Fields() []FormField {
	var out []FormField
	for _, s := range f.Steps {
		out = append(out, s.Fields...)
	}
	return out
}

// Label returns the display label for field, falling back to its name.
func (f *Form) Label(field string) string {
	for _, s := range f.Steps {
		for _, ff := range s.Fields {
			if ff.Name == field && ff.Label != "" {
				return ff.Label
			}
		}
	}
	return field
}

// StepTitle returns the title of the step with the given index, or "".
func (f *Form) StepTitle(step int) string {
	for _, s := range f.Steps {
		if s.Index == step {
			return s.Title
		}
	}
	return ""
}

// Answer is one submitted value, tagged with its step and field.
type Answer struct {
	Step  int    `json:"step" yaml:"step"`
	Field string `json:"field" yaml:"field"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Value any    `json:"value" yaml:"value"`
}

// FieldAnswer is a named value of a structured submission.
type FieldAnswer struct {
	Field string `json:"field" yaml:"field"`
	Value any    `json:"value" yaml:"value"`
}

// StructuredSubmission is raw analysis input that already carries named
// fields. It is mapped onto ParsedInput without text heuristics.
type StructuredSubmission struct {
	Program  ProgramContext `json:"program"`
	Answers  []FieldAnswer  `json:"answers"`
	Criteria []Criterion    `json:"criteria"`
}
