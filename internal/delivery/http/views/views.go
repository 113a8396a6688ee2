// Package views holds the server-rendered pages of the web tier.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

//go:embed layout.html pages/*.html
var files embed.FS

var funcs = template.FuncMap{
	"clock": func(d time.Duration) string {
		secs := int(d.Round(time.Second).Seconds())
		return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"seconds": func(d time.Duration) int {
		return int(d.Round(time.Second).Seconds())
	},
	"percent": func(score, total int) int {
		if total == 0 {
			return 0
		}
		return score * 100 / total
	},
}

// Renderer renders every page inside the shared layout. It implements gin's
// render.HTMLRender.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	names, err := fs.Glob(files, "pages/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return r, nil
}

// Instance picks the page by name, e.g. "login" for pages/login.html.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		t = r.pages["error"]
		data = map[string]any{"Message": "page " + name + " not found"}
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}
