// Package render turns page data into HTML using the embedded templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/thisdougb/techtrends/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	Index    = "index"
	Post     = "post"
	About    = "about"
	Create   = "create"
	NotFound = "404"
)

// Page is the payload every template receives. Title and Content echo the
// create form.
type Page struct {
	Flashes []string
	Posts   []storage.Post
	Post    *storage.Post
	Title   string
	Content string
}

// Renderer holds one parsed template set per page, each sharing the base
// layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}

	for _, name := range []string{Index, Post, About, Create, NotFound} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}

	return r, nil
}

// Render executes the named page into w. Nothing is written if execution
// fails.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	_, err := buf.WriteTo(w)
	return err
}
