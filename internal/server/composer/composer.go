// Package composer assembles tenant pages from module instances and the
// product catalog.
package composer

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/modules"
	"github.com/yangtinglin69/saas/internal/server/siteconfig"
	"github.com/yangtinglin69/saas/pkg/logger"
)

// DefaultReadTimeout bounds each backing read when no timeout is configured.
const DefaultReadTimeout = 3 * time.Second

// SiteResolver resolves a request host to an active site.
type SiteResolver interface {
	ResolveHost(ctx context.Context, host string) (*models.Site, error)
}

// ModuleSource lists the module instances of a site in storage order.
type ModuleSource interface {
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]models.Module, error)
}

// ProductSource lists the active products of a site in rank order.
type ProductSource interface {
	ListActiveProducts(ctx context.Context, siteID uuid.UUID) ([]models.Product, error)
}

// Options tunes a Composer.
type Options struct {
	ReadTimeout      time.Duration
	DefaultShowCount int
}

// Page is a composed tenant home page.
type Page struct {
	Site     *models.Site
	Config   siteconfig.Config
	Theme    siteconfig.Theme
	Sections []modules.Section
}

// Composer builds pages. It holds no tenant state between calls.
type Composer struct {
	sites    SiteResolver
	modules  ModuleSource
	products ProductSource
	registry *modules.Registry
	opts     Options
}

// New creates a composer.
func New(sites SiteResolver, mods ModuleSource, products ProductSource, registry *modules.Registry, opts Options) *Composer {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.DefaultShowCount <= 0 {
		opts.DefaultShowCount = modules.DefaultShowCount
	}

	return &Composer{
		sites:    sites,
		modules:  mods,
		products: products,
		registry: registry,
		opts:     opts,
	}
}

// ResolveSite resolves host within the read timeout. Any error is fatal to
// the request.
func (c *Composer) ResolveSite(ctx context.Context, host string) (*models.Site, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ReadTimeout)
	defer cancel()

	return c.sites.ResolveHost(ctx, host)
}

// ComposeHost resolves host and composes its home page. basePath prefixes
// internal links ("" on tenant hosts).
func (c *Composer) ComposeHost(ctx context.Context, host, basePath string) (*Page, error) {
	site, err := c.ResolveSite(ctx, host)
	if err != nil {
		return nil, err
	}

	return c.Compose(ctx, site, basePath), nil
}

// Compose renders the enabled modules of site in display order. Failed
// module or catalog reads are logged and degrade the page; they never fail
// it.
func (c *Composer) Compose(ctx context.Context, site *models.Site, basePath string) *Page {
	cfg, err := siteconfig.Decode(site.Config)
	if err != nil {
		logger.WarnEvent().
			Err(err).
			Str("site_id", site.ID.String()).
			Msg("Site config partially decoded")
	}

	page := &Page{
		Site:   site,
		Config: cfg,
		Theme:  cfg.Theme(),
	}

	mods, err := c.listModules(ctx, site.ID)
	if err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("site_id", site.ID.String()).
			Msg("Failed to load modules, composing empty page")
		return page
	}

	enabled := Ordered(mods)
	if len(enabled) == 0 {
		return page
	}

	env := modules.Env{
		SiteID:           site.ID,
		Theme:            page.Theme,
		BasePath:         basePath,
		DefaultShowCount: c.opts.DefaultShowCount,
	}
	if needsProducts(enabled) {
		env.Products = c.ListProducts(ctx, site.ID)
	}

	for _, m := range enabled {
		if sec, ok := c.registry.Render(m.Kind, m.Content, env); ok {
			page.Sections = append(page.Sections, sec)
		}
	}

	return page
}

// ListProducts returns the active products of a site, or none when the
// read fails.
func (c *Composer) ListProducts(ctx context.Context, siteID uuid.UUID) []models.Product {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ReadTimeout)
	defer cancel()

	products, err := c.products.ListActiveProducts(ctx, siteID)
	if err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("site_id", siteID.String()).
			Msg("Failed to load products, rendering without catalog")
		return nil
	}
	return products
}

func (c *Composer) listModules(ctx context.Context, siteID uuid.UUID) ([]models.Module, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ReadTimeout)
	defer cancel()

	return c.modules.ListBySite(ctx, siteID)
}

// Ordered returns the enabled modules sorted by display order. Modules with
// equal orders keep their storage order.
func Ordered(mods []models.Module) []models.Module {
	enabled := make([]models.Module, 0, len(mods))
	for _, m := range mods {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].DisplayOrder < enabled[j].DisplayOrder
	})
	return enabled
}

func needsProducts(mods []models.Module) bool {
	for _, m := range mods {
		if m.Kind == modules.KindProducts {
			return true
		}
	}
	return false
}

// Preview renders one module document of site for the admin editor. Kinds
// without a template, and documents their template rejects, are shown as a
// key/value listing instead.
func (c *Composer) Preview(ctx context.Context, site *models.Site, kind string, content []byte) (modules.Section, error) {
	cfg, _ := siteconfig.Decode(site.Config)
	env := modules.Env{
		SiteID:           site.ID,
		Theme:            cfg.Theme(),
		BasePath:         PreviewBasePath(site.FullDomain),
		DefaultShowCount: c.opts.DefaultShowCount,
	}
	if kind == modules.KindProducts {
		env.Products = c.ListProducts(ctx, site.ID)
	}

	if sec, ok := c.registry.Render(kind, content, env); ok {
		return sec, nil
	}
	return c.registry.RenderFallback(kind, content)
}

// PreviewBasePath is the link prefix of a site browsed through the admin
// host.
func PreviewBasePath(host string) string {
	return "/site/" + host
}
