package errorpages

import (
	"bytes"
	"html/template"
	"net/http"
	"sync"

	"github.com/yangtinglin69/saas/pkg/logger"
)

var (
	// Template cache for performance (compiled once at startup)
	templateCache = make(map[string]*template.Template)
	cacheMu       sync.RWMutex
	initOnce      sync.Once
)

// ErrorPageData holds dynamic data for error templates.
type ErrorPageData struct {
	Host string // tenant host, shown on 404 pages
}

// initTemplates compiles all templates on first use.
func initTemplates() {
	initOnce.Do(func() {
		// Parse all templates
		templates := []string{"404.html", "503.html"}

		for _, tmplName := range templates {
			tmpl, err := template.ParseFS(templatesFS, "templates/"+tmplName)
			if err != nil {
				logger.ErrorEvent().
					Err(err).
					Str("template", tmplName).
					Msg("Failed to parse error template")
				continue
			}

			cacheMu.Lock()
			templateCache[tmplName] = tmpl
			cacheMu.Unlock()

			logger.InfoEvent().
				Str("template", tmplName).
				Msg("Error template loaded successfully")
		}
	})
}

// RenderErrorPage renders an error page with optional data.
func RenderErrorPage(w http.ResponseWriter, statusCode int, data *ErrorPageData) {
	// Initialize templates on first call
	initTemplates()

	// Map status codes to template files
	var templateName string
	switch statusCode {
	case http.StatusNotFound:
		templateName = "404.html"
	case http.StatusServiceUnavailable:
		templateName = "503.html"
	default:
		// Fallback to plain text for unmapped errors
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	// Get template from cache
	cacheMu.RLock()
	tmpl, ok := templateCache[templateName]
	cacheMu.RUnlock()

	if !ok {
		logger.ErrorEvent().
			Str("template", templateName).
			Msg("Error template not found in cache")
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	// Ensure data is not nil
	if data == nil {
		data = &ErrorPageData{}
	}

	// Render template to buffer (avoid partial writes on error)
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("template", templateName).
			Msg("Failed to execute error template")
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	// Write response
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnEvent().
			Err(err).
			Msg("Failed to write error page to response")
	}
}

// PageNotFound renders the generic 404 page of tenant sites.
func PageNotFound(w http.ResponseWriter, host string) {
	RenderErrorPage(w, http.StatusNotFound, &ErrorPageData{
		Host: host,
	})
}

// Unavailable renders the 503 page shown when backing data cannot be read.
func Unavailable(w http.ResponseWriter) {
	RenderErrorPage(w, http.StatusServiceUnavailable, nil)
}

// NotFoundHandler answers every request with the 404 page.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		PageNotFound(w, "")
	})
}
