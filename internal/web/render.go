// Package web holds the HTML pages and the echo renderer for them.
package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

//go:embed templates/*.html
var files embed.FS

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	t *template.Template
}

// NewRenderer parses the embedded templates.  It panics on a broken
// template since that is a build defect.
func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"slotSelected": func(sel *model.Timeslot, ts model.Timeslot) bool {
			return sel != nil && *sel == ts
		},
	}
	return &Renderer{t: template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.html"))}
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.t.ExecuteTemplate(w, name, data)
}
