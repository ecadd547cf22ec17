// Package view renders the console's HTML templates.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/refdata"
	"github.com/thriftstock/thriftstock/internal/shared"
	"github.com/thriftstock/thriftstock/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	imageBase string
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Ref         *refdata.Snapshot
	Data        any
}

// Option customises an Engine.
type Option func(*Engine)

// WithImageBase sets the backend base URL relative photo paths resolve against.
func WithImageBase(base string) Option {
	return func(e *Engine) { e.imageBase = base }
}

// NewEngine parses the embedded templates.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	tpl, err := template.New("root").Funcs(e.funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	e.templates = tpl
	return e, nil
}

// Render executes a named template with TemplateData. The page is buffered
// so a failing template never leaves a half-written response.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// RenderStatus is Render with an explicit status code.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

var titleCaser = cases.Title(language.English)

// Humanise turns "status_changed" into "Status Changed".
func Humanise(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))
	return titleCaser.String(strings.ToLower(s))
}

func (e *Engine) funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatDate,
		"price":      formatPrice,
		"imageURL": func(path string) string {
			return backend.ResolveImageURL(e.imageBase, path)
		},
		"humanise": Humanise,
		"deref":    deref,
		"eqID": func(id int64, p *int64) bool {
			return p != nil && *p == id
		},
		"hasID": func(ids []int64, id int64) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"pageURL": func(path string, q url.Values, page int) string {
			next := url.Values{}
			for k, v := range q {
				next[k] = append([]string(nil), v...)
			}
			next.Set("page", strconv.Itoa(page))
			return path + "?" + next.Encode()
		},
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				key, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[key] = kv[i+1]
			}
			return m, nil
		},
	}
}

func formatDate(v any) string {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case backend.Timestamp:
		t = x.Time
	case *backend.Timestamp:
		if x == nil {
			return ""
		}
		t = x.Time
	default:
		return ""
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006 15:04")
}

func formatPrice(v any) string {
	switch x := v.(type) {
	case backend.Price:
		return x.Format()
	case *backend.Price:
		if x == nil {
			return ""
		}
		return x.Format()
	default:
		return ""
	}
}

func deref(v any) any {
	switch x := v.(type) {
	case *int64:
		if x == nil {
			return ""
		}
		return *x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case *bool:
		if x == nil {
			return false
		}
		return *x
	default:
		return v
	}
}
