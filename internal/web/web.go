// Package web owns the HTML templates and static assets of the site.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/internal/component"
	"github.com/lshigami/polls/internal/middleware"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// NewTemplates parses every page template with the component fragments and
// helper functions available.
func NewTemplates(reg *component.Registry) (*template.Template, error) {
	return template.New("").
		Funcs(reg.FuncMap()).
		Funcs(template.FuncMap{"pluralize": pluralize}).
		ParseFS(templateFS, "templates/*.html", "templates/*/*.html")
}

// Static serves the embedded stylesheet and friends under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return http.FS(sub)
}

// Render executes a page template with the signed-in user and pending
// flash messages added to data.
func Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["user"] = middleware.GetCurrentUser(c)
	data["messages"] = middleware.Flashes(c)
	if _, ok := data["title"]; !ok {
		data["title"] = "Polls"
	}
	c.HTML(status, name, data)
}

// NotFound renders the 404 page.
func NotFound(c *gin.Context, detail string) {
	Render(c, http.StatusNotFound, "errors/404.html", gin.H{"title": "Not Found", "detail": detail})
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
