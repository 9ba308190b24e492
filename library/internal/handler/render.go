package handler

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-web/library/web"
)

const (
	pageHome        = "home"
	pageBorrowBooks = "borrow_books"
	pageBorrowBook  = "borrow_book"
	pageLogin       = "login"
	pageRegister    = "register"
	pageError       = "error"
)

const baseTemplate = "templates/base.html"

// Renderer executes a page template inside the shared base layout.
type Renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

var templateFuncs = template.FuncMap{
	"date":   formatDate,
	"rating": formatRating,
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == baseTemplate {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(web.Templates, baseTemplate, file)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", file)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

func formatDate(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(time.DateOnly)
	}
	return ""
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *r)
}
