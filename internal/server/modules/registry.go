// Package modules holds the registry of content module kinds: their
// content schema, default document and rendering rule.
package modules

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/siteconfig"
	"github.com/yangtinglin69/saas/pkg/decode"
	"github.com/yangtinglin69/saas/pkg/logger"
)

// DefaultShowCount caps the products list when neither the module content
// nor the environment set a limit.
const DefaultShowCount = 10

// Env is the per-request rendering environment shared by all modules.
type Env struct {
	SiteID           uuid.UUID
	Theme            siteconfig.Theme
	Products         []models.Product // active products, rank order
	BasePath         string           // prefix for internal links, "" on tenant hosts
	DefaultShowCount int
}

// Section is one rendered module.
type Section struct {
	Kind string
	HTML template.HTML
}

// Definition describes one module kind.
type Definition interface {
	Kind() string
	// Default returns a fresh default content document.
	Default() map[string]any
	// Decode reads a stored document. It never fails hard: the returned
	// Content is always usable and the error reports skipped fields.
	Decode(raw []byte) (Content, error)
	// View builds the template data for c, or reports false when the
	// module has nothing to show.
	View(c Content, env Env) (any, bool)
}

type definition[T Content] struct {
	kind     string
	defaults func() map[string]any
	view     func(c T, env Env) (any, bool)
}

// Define builds a Definition for a content struct T decoded with `json` tags.
func Define[T Content](kind string, defaults func() map[string]any, view func(c T, env Env) (any, bool)) Definition {
	return &definition[T]{kind: kind, defaults: defaults, view: view}
}

func (d *definition[T]) Kind() string { return d.kind }

func (d *definition[T]) Default() map[string]any {
	if d.defaults == nil {
		return map[string]any{}
	}
	return d.defaults()
}

func (d *definition[T]) Decode(raw []byte) (Content, error) {
	var c T
	err := decode.JSON(raw, &c)
	return c, err
}

func (d *definition[T]) View(c Content, env Env) (any, bool) {
	typed, ok := c.(T)
	if !ok {
		return nil, false
	}
	return d.view(typed, env)
}

// Seed is a module instance created with every new site.
type Seed struct {
	Kind         string
	Enabled      bool
	DisplayOrder int
	Content      map[string]any
}

// Registry maps module kinds to their definitions and templates.
// Kinds are registered at startup; rendering is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	kinds []string
	tmpl  *template.Template
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{
		defs: make(map[string]Definition),
		tmpl: template.Must(template.New("modules").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")),
	}
	for _, def := range builtins() {
		if err := r.Register(def, ""); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a kind. tmplText is the body of the kind's template; it may
// be empty when a template named after the kind is already loaded.
func (r *Registry) Register(def Definition, tmplText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := def.Kind()
	if kind == "" {
		return fmt.Errorf("module kind must not be empty")
	}
	if _, exists := r.defs[kind]; exists {
		return fmt.Errorf("module kind %q already registered", kind)
	}

	if tmplText != "" {
		if _, err := r.tmpl.New(kind).Parse(tmplText); err != nil {
			return fmt.Errorf("parse template for %q: %w", kind, err)
		}
	}
	if r.tmpl.Lookup(kind) == nil {
		return fmt.Errorf("no template for module kind %q", kind)
	}

	r.defs[kind] = def
	r.kinds = append(r.kinds, kind)
	return nil
}

// Lookup returns the definition of kind.
func (r *Registry) Lookup(kind string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[kind]
	return def, ok
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.kinds...)
}

// Seeds returns the default module instances of a new site: every
// registered kind, enabled, ordered as registered.
func (r *Registry) Seeds() []Seed {
	kinds := r.Kinds()
	seeds := make([]Seed, 0, len(kinds))
	for i, kind := range kinds {
		def, _ := r.Lookup(kind)
		seeds = append(seeds, Seed{
			Kind:         kind,
			Enabled:      true,
			DisplayOrder: i + 1,
			Content:      def.Default(),
		})
	}
	return seeds
}

// Decode decodes a document of any kind. Unknown kinds yield OpaqueContent.
func (r *Registry) Decode(kind string, raw []byte) (Content, error) {
	if def, ok := r.Lookup(kind); ok {
		return def.Decode(raw)
	}
	fields, err := decode.Object(raw)
	return OpaqueContent{KindName: kind, Fields: fields}, err
}

// Render renders one module. It reports false when the kind is unknown,
// the module has no qualifying content or rendering failed; the failure
// is logged and never propagated.
func (r *Registry) Render(kind string, raw []byte, env Env) (sec Section, ok bool) {
	def, found := r.Lookup(kind)
	if !found {
		logger.DebugEvent().
			Str("site_id", env.SiteID.String()).
			Str("kind", kind).
			Msg("Skipping unknown module kind")
		return Section{}, false
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorEvent().
				Str("site_id", env.SiteID.String()).
				Str("kind", kind).
				Interface("panic", rec).
				Msg("Module render panicked")
			sec, ok = Section{}, false
		}
	}()

	content, err := def.Decode(raw)
	if err != nil {
		logger.WarnEvent().
			Err(err).
			Str("site_id", env.SiteID.String()).
			Str("kind", kind).
			Msg("Module content partially decoded")
	}

	view, show := def.View(content, env)
	if !show {
		return Section{}, false
	}

	html, err := r.execute(kind, view)
	if err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("site_id", env.SiteID.String()).
			Str("kind", kind).
			Msg("Failed to execute module template")
		return Section{}, false
	}

	return Section{Kind: kind, HTML: html}, true
}

// RenderFallback renders any document as a plain key/value listing. The
// admin preview uses it for kinds the registry does not know.
func (r *Registry) RenderFallback(kind string, raw []byte) (Section, error) {
	fields, err := decode.Object(raw)
	if err != nil {
		return Section{}, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]fallbackRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, fallbackRow{Key: k, Value: displayValue(fields[k])})
	}

	html, err := r.execute("fallback", fallbackView{Kind: kind, Rows: rows})
	if err != nil {
		return Section{}, err
	}
	return Section{Kind: kind, HTML: html}, nil
}

func (r *Registry) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
