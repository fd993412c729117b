package site

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"home.html", "product.html", "blog_list.html", "blog_post.html"}

var funcMap = template.FuncMap{
	// trusted marks admin-authored HTML (post bodies, custom head tags).
	"trusted": func(s string) template.HTML { return template.HTML(s) },
	"money": func(v float64) string {
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
	"score": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"percent": func(v float64) string {
		return strconv.FormatFloat(min(max(v, 0), 10)*10, 'f', 0, 64) + "%"
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"segment": url.PathEscape,
}

// parsePages builds one template set per page, each holding the layout.
func parsePages() map[string]*template.Template {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.New(name).Funcs(funcMap).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
	}
	return pages
}
