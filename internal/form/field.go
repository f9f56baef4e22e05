// Package form is the themed field layer behind every create/edit dialog:
// inputs, selects and multiple selects with inline errors.
package form

import "slices"

// Kind selects how a field is rendered.
type Kind string

const (
	KindText        Kind = "text"
	KindEmail       Kind = "email"
	KindPassword    Kind = "password"
	KindNumber      Kind = "number"
	KindDate        Kind = "date"
	KindTextarea    Kind = "textarea"
	KindCheckbox    Kind = "checkbox"
	KindHidden      Kind = "hidden"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
)

// Option is one choice of a select.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"-"`
}

// Field is a single form control.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Value       string
	Values      []string
	Options     []Option
	Placeholder string
	Help        string
	Required    bool
	Error       string
	// Aliases are alternate backend keys whose errors land on this field.
	Aliases []string
}

// Input is the FormInput control: a text-like input.
func Input(name, label string) Field {
	return Field{Name: name, Label: label, Kind: KindText}
}

// Select is the FormSelect control.
func Select(name, label string, options []Option) Field {
	return Field{Name: name, Label: label, Kind: KindSelect, Options: options}
}

// MultipleSelect is the FormMultipleSelect control.
func MultipleSelect(name, label string, options []Option) Field {
	return Field{Name: name, Label: label, Kind: KindMultiSelect, Options: options}
}

// As changes the field kind.
func (f Field) As(kind Kind) Field {
	f.Kind = kind
	return f
}

// Require marks the field as mandatory.
func (f Field) Require() Field {
	f.Required = true
	return f
}

// WithValue sets the current value.
func (f Field) WithValue(v string) Field {
	f.Value = v
	return f
}

// WithValues sets the current values of a multiple select.
func (f Field) WithValues(vs []string) Field {
	f.Values = slices.Clone(vs)
	return f
}

// WithPlaceholder sets the placeholder, also used as the empty select option.
func (f Field) WithPlaceholder(p string) Field {
	f.Placeholder = p
	return f
}

// WithHelp sets the help text.
func (f Field) WithHelp(h string) Field {
	f.Help = h
	return f
}

// Alias adds backend keys mapping onto this field.
func (f Field) Alias(keys ...string) Field {
	f.Aliases = append(slices.Clone(f.Aliases), keys...)
	return f
}

// IsSelect reports a single select.
func (f Field) IsSelect() bool { return f.Kind == KindSelect }

// IsMulti reports a multiple select.
func (f Field) IsMulti() bool { return f.Kind == KindMultiSelect }

// IsTextarea reports a textarea.
func (f Field) IsTextarea() bool { return f.Kind == KindTextarea }

// IsCheckbox reports a checkbox.
func (f Field) IsCheckbox() bool { return f.Kind == KindCheckbox }

// IsHidden reports a hidden input.
func (f Field) IsHidden() bool { return f.Kind == KindHidden }

// Checked reports whether a checkbox is on.
func (f Field) Checked() bool { return f.Value == "true" }

// Choices returns the options with Selected following the current value(s).
func (f Field) Choices() []Option {
	out := make([]Option, len(f.Options))
	for i, opt := range f.Options {
		if f.Kind == KindMultiSelect {
			opt.Selected = slices.Contains(f.Values, opt.Value)
		} else {
			opt.Selected = opt.Value == f.Value
		}
		out[i] = opt
	}
	return out
}

// SelectedLabels returns the labels of the chosen options.
func (f Field) SelectedLabels() []string {
	var labels []string
	for _, opt := range f.Choices() {
		if opt.Selected {
			labels = append(labels, opt.Label)
		}
	}
	return labels
}
