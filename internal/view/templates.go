package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// NavItem is one entry of the side navigation.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	Toasts      []string
	CurrentPath string
	Profile     *shared.Profile
	Language    string
	Languages   []string
	Nav         []NavItem
	Data        any
}

// SignedIn reports whether a profile is attached.
func (d TemplateData) SignedIn() bool {
	return d.Profile != nil
}

var templatePatterns = []string{
	"templates/layouts/*.html",
	"templates/partials/*.html",
	"templates/pages/*.html",
	"templates/pages/*/*.html",
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(funcMap()).ParseFS(web.Templates, templatePatterns...)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// RenderBytes executes a template into memory, used for PDF sources.
func (e *Engine) RenderBytes(name string, data TemplateData) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatDate,
		"formatDay":  formatDay,
		"join":       strings.Join,
		"dict":       dict,
		"upper":      strings.ToUpper,
		"can": func(p *shared.Profile, perm string) bool {
			return p != nil && p.Can(perm)
		},
		"statusClass": func(status string) string {
			switch strings.ToLower(status) {
			case "green", "active":
				return "badge badge-green"
			case "yellow", "pending":
				return "badge badge-yellow"
			case "red", "inactive":
				return "badge badge-red"
			}
			return "badge"
		},
	}
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		out[key] = kv[i+1]
	}
	return out, nil
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func formatDate(v any) string {
	t, ok := parseTime(v)
	if !ok {
		if s, isString := v.(string); isString {
			return s
		}
		return ""
	}
	return t.Format("02 Jan 2006 15:04")
}

func formatDay(v any) string {
	t, ok := parseTime(v)
	if !ok {
		if s, isString := v.(string); isString {
			return s
		}
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatDate renders a timestamp the way templates do.
func FormatDate(v any) string { return formatDate(v) }

// FormatDay renders a date without time.
func FormatDay(v any) string { return formatDay(v) }
