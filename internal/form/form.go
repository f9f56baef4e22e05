package form

import (
	"errors"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/denguechat/denguechat-admin/internal/platform/api"
)

// Error codes used when no backend code applies.
const (
	codeGeneric      = "generic"
	codeRequired     = "required"
	codeEmail        = "email"
	codeTooShort     = "too_short"
	codeInvalid      = "invalid"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeUnavailable  = "unavailable"
)

// Translator resolves error codes to messages. Unknown codes yield fallback
// when non-empty, otherwise a generic message.
type Translator interface {
	Error(lang, code, fallback string) string
}

// Form is an ordered set of fields plus non-field messages.
type Form struct {
	Action      string
	Method      string
	SubmitLabel string
	Fields      []Field
	// Toasts are non-field errors shown as notifications.
	Toasts []string
}

// New builds a POST form.
func New(action string, fields ...Field) *Form {
	return &Form{Action: action, Method: "post", SubmitLabel: "Save", Fields: fields}
}

// Field returns the named field or nil.
func (f *Form) Field(name string) *Field {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}

// Bind copies submitted values onto the fields. Checkboxes map presence to
// "true"; multiple selects keep every non-empty value.
func (f *Form) Bind(values url.Values) {
	for i := range f.Fields {
		field := &f.Fields[i]
		switch field.Kind {
		case KindCheckbox:
			if values.Get(field.Name) != "" {
				field.Value = "true"
			} else {
				field.Value = "false"
			}
		case KindMultiSelect:
			field.Values = field.Values[:0]
			for _, v := range values[field.Name] {
				v = strings.TrimSpace(v)
				if v != "" && !slices.Contains(field.Values, v) {
					field.Values = append(field.Values, v)
				}
			}
		case KindPassword:
			field.Value = values.Get(field.Name)
		default:
			field.Value = strings.TrimSpace(values.Get(field.Name))
		}
	}
}

// Value returns the value of a field.
func (f *Form) Value(name string) string {
	if field := f.Field(name); field != nil {
		return field.Value
	}
	return ""
}

// Values returns the values of a multiple select.
func (f *Form) Values(name string) []string {
	if field := f.Field(name); field != nil {
		return slices.Clone(field.Values)
	}
	return nil
}

// Bool returns a checkbox state.
func (f *Form) Bool(name string) bool {
	return f.Value(name) == "true"
}

// SetError attaches msg to the field matching key (snake_case, camelCase
// and aliases are equivalent). It reports whether a field matched.
func (f *Form) SetError(key, msg string) bool {
	want := normalizeKey(key)
	for i := range f.Fields {
		field := &f.Fields[i]
		if field.IsHidden() {
			continue
		}
		if normalizeKey(field.Name) != want && !slices.ContainsFunc(field.Aliases, func(a string) bool { return normalizeKey(a) == want }) {
			continue
		}
		if field.Error == "" {
			field.Error = msg
		}
		return true
	}
	return false
}

// AddToast queues a non-field message once.
func (f *Form) AddToast(msg string) {
	if msg == "" || slices.Contains(f.Toasts, msg) {
		return
	}
	f.Toasts = append(f.Toasts, msg)
}

// HasErrors reports any field error or toast.
func (f *Form) HasErrors() bool {
	if len(f.Toasts) > 0 {
		return true
	}
	return slices.ContainsFunc(f.Fields, func(field Field) bool { return field.Error != "" })
}

// ClearErrors drops every error.
func (f *Form) ClearErrors() {
	f.Toasts = nil
	for i := range f.Fields {
		f.Fields[i].Error = ""
	}
}

// ApplyErrors routes a failed backend call onto the form. Field-scoped
// items become inline errors; the rest become toasts keyed by error code
// with the generic message as fallback.
func (f *Form) ApplyErrors(err error, tr Translator, lang string) {
	if err == nil {
		return
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, api.ErrUnavailable) {
			f.AddToast(tr.Error(lang, codeUnavailable, ""))
			return
		}
		f.AddToast(tr.Error(lang, codeGeneric, ""))
		return
	}
	for _, item := range apiErr.Items {
		if item.Field != "" && f.SetError(item.Field, tr.Error(lang, item.Code, item.Detail)) {
			continue
		}
		f.AddToast(tr.Error(lang, item.Code, ""))
	}
	if len(apiErr.Items) == 0 {
		f.AddToast(tr.Error(lang, statusCode(apiErr), ""))
	}
}

func statusCode(err *api.Error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return codeUnauthorized
	case errors.Is(err, api.ErrForbidden):
		return codeForbidden
	case errors.Is(err, api.ErrNotFound):
		return codeNotFound
	case errors.Is(err, api.ErrUnavailable):
		return codeUnavailable
	}
	return codeGeneric
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(sf reflect.StructField) string {
			name, _, _ := strings.Cut(sf.Tag.Get("form"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return sf.Name
			}
			return name
		})
	})
	return validate
}

// Validate runs struct validation on v (fields tagged `form:"name"`) and
// attaches failures to the matching fields. It reports whether v is valid.
func (f *Form) Validate(v any, tr Translator, lang string) bool {
	err := structValidator().Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		f.AddToast(tr.Error(lang, codeGeneric, ""))
		return false
	}
	for _, fe := range verrs {
		msg := tr.Error(lang, validationCode(fe.Tag()), "")
		if !f.SetError(fe.Field(), msg) {
			f.AddToast(msg)
		}
	}
	return false
}

func validationCode(tag string) string {
	switch tag {
	case "required", "required_if", "required_with":
		return codeRequired
	case "email":
		return codeEmail
	case "min":
		return codeTooShort
	}
	return codeInvalid
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer("_", "", "-", "").Replace(key)
	return key
}
