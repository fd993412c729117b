// Package site serves the public pages of tenant sites: the composed home
// page, product details, the blog and the sitemap feed.
package site

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/composer"
	"github.com/yangtinglin69/saas/internal/server/errorpages"
	"github.com/yangtinglin69/saas/internal/server/hostrouter"
	"github.com/yangtinglin69/saas/internal/server/modules"
	"github.com/yangtinglin69/saas/internal/server/siteconfig"
	"github.com/yangtinglin69/saas/internal/server/sitemap"
	"github.com/yangtinglin69/saas/internal/server/web/middleware"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
)

// ProductFinder looks up the active product behind a detail URL.
type ProductFinder interface {
	GetProductBySlug(ctx context.Context, siteID uuid.UUID, slug string) (*models.Product, error)
}

// PostReader reads the published posts of a site.
type PostReader interface {
	ListPublished(ctx context.Context, siteID uuid.UUID) ([]models.Post, error)
	GetPublished(ctx context.Context, siteID uuid.UUID, slug string) (*models.Post, error)
	ListByCategory(ctx context.Context, siteID uuid.UUID, category string) ([]models.Post, error)
	ListByTag(ctx context.Context, siteID uuid.UUID, tag string) ([]models.Post, error)
	Categories(ctx context.Context, siteID uuid.UUID) ([]string, error)
	Related(ctx context.Context, post *models.Post) ([]models.Post, error)
}

// Handler serves tenant pages under hostrouter.SitePrefix.
type Handler struct {
	composer *composer.Composer
	products ProductFinder
	posts    PostReader
	sitemap  *sitemap.Generator
	pages    map[string]*template.Template
	now      func() time.Time
}

// NewHandler creates a tenant page handler.
func NewHandler(c *composer.Composer, products ProductFinder, posts PostReader, gen *sitemap.Generator) *Handler {
	return &Handler{
		composer: c,
		products: products,
		posts:    posts,
		sitemap:  gen,
		pages:    parsePages(),
		now:      time.Now,
	}
}

// Register mounts the tenant routes on mux. Every response is marked
// uncacheable so admin edits show on the next request.
func (h *Handler) Register(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"GET /site/{host}/{$}":                      h.home,
		"GET /site/{host}/products/{slug}":          h.product,
		"GET /site/{host}/blog":                     h.blogIndex,
		"GET /site/{host}/blog/{slug}":              h.blogPost,
		"GET /site/{host}/blog/category/{category}": h.blogCategory,
		"GET /site/{host}/blog/tag/{tag}":           h.blogTag,
		"GET /site/{host}/sitemap.xml":              h.sitemapXML,
		"GET /site/{host}/":                         h.notFound,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, middleware.NoStore(fn))
	}
}

// pageData is what the layout and every page template render from.
type pageData struct {
	Title       string
	Description string
	SiteName    string
	Copyright   string
	BasePath    string
	Config      siteconfig.Config
	Theme       siteconfig.Theme

	Sections   []modules.Section
	Product    *models.Product
	Post       *models.Post
	Posts      []models.Post
	Related    []models.Post
	Categories []string
	Category   string
	Heading    string
}

// basePath is empty on tenant hosts and the preview prefix on the admin host.
func basePath(r *http.Request, host string) string {
	if _, ok := hostrouter.HostFromContext(r.Context()); ok {
		return ""
	}
	return "/site/" + host
}

// resolve loads the active site of the request. On failure the 404 page has
// already been written.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*models.Site, bool) {
	host := r.PathValue("host")
	site, err := h.composer.ResolveSite(r.Context(), host)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrSiteNotFound) {
			logger.ErrorEvent().
				Err(err).
				Str("host", host).
				Msg("Failed to resolve site")
		}
		errorpages.PageNotFound(w, host)
		return nil, false
	}
	return site, true
}

func (h *Handler) baseData(r *http.Request, site *models.Site) pageData {
	cfg, err := siteconfig.Decode(site.Config)
	if err != nil {
		logger.WarnEvent().
			Err(err).
			Str("site_id", site.ID.String()).
			Msg("Site config partially decoded")
	}
	return h.dataFor(r, site, cfg, cfg.Theme())
}

func (h *Handler) dataFor(r *http.Request, site *models.Site, cfg siteconfig.Config, theme siteconfig.Theme) pageData {
	name := cfg.DisplayName(site.Name)
	title := cfg.SEO.Title
	if title == "" {
		title = name
	}
	copyright := cfg.Footer.Copyright
	if copyright == "" {
		copyright = "© " + strconv.Itoa(h.now().Year()) + " " + name
	}
	return pageData{
		Title:       title,
		Description: cfg.SEO.Description,
		SiteName:    name,
		Copyright:   copyright,
		BasePath:    basePath(r, site.FullDomain),
		Config:      cfg,
		Theme:       theme,
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolve(w, r)
	if !ok {
		return
	}

	page := h.composer.Compose(r.Context(), site, basePath(r, site.FullDomain))
	data := h.dataFor(r, site, page.Config, page.Theme)
	data.Sections = page.Sections
	h.render(w, "home.html", data)
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolve(w, r)
	if !ok {
		return
	}

	p, err := h.products.GetProductBySlug(r.Context(), site.ID, r.PathValue("slug"))
	if err != nil {
		h.lookupFailed(w, site, err, "Failed to load product")
		return
	}

	data := h.baseData(r, site)
	data.Product = p
	data.Title = p.Name + " | " + data.SiteName
	data.Description = p.BriefReview
	h.render(w, "product.html", data)
}

func (h *Handler) blogIndex(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolve(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.ListPublished(r.Context(), site.ID)
	h.logListFailure(err, site)
	h.renderList(w, r, site, posts, "", "Blog")
}

func (h *Handler) blogCategory(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolve(w, r)
	if !ok {
		return
	}

	category := r.PathValue("category")
	posts, err := h.posts.ListByCategory(r.Context(), site.ID, category)
	h.logListFailure(err, site)
	h.renderList(w, r, site, posts, category, category)
}

func (h *Handler) blogTag(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolve(w, r)
	if !ok {
		return
	}

	tag := r.PathValue("tag")
	posts, err := h.posts.ListByTag(r.Context(), site.ID, tag)
	h.logListFailure(err, site)
	h.renderList(w, r, site, posts, "", "#"+tag)
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, site *models.Site, posts []models.Post, category, heading string) {
	categories, err := h.posts.Categories(r.Context(), site.ID)
	h.logListFailure(err, site)

	data := h.baseData(r, site)
	data.Posts = posts
	data.Categories = categories
	data.Category = category
	data.Heading = heading
	data.Title = heading + " | " + data.SiteName
	h.render(w, "blog_list.html", data)
}

func (h *Handler) blogPost(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolve(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetPublished(r.Context(), site.ID, r.PathValue("slug"))
	if err != nil {
		h.lookupFailed(w, site, err, "Failed to load post")
		return
	}

	related, err := h.posts.Related(r.Context(), post)
	h.logListFailure(err, site)

	data := h.baseData(r, site)
	data.Post = post
	data.Related = related
	data.Title = post.Title + " | " + data.SiteName
	if post.SEOTitle != "" {
		data.Title = post.SEOTitle
	}
	data.Description = post.SEODescription
	if data.Description == "" {
		data.Description = post.Excerpt
	}
	h.render(w, "blog_post.html", data)
}

func (h *Handler) sitemapXML(w http.ResponseWriter, r *http.Request) {
	site, ok := h.resolve(w, r)
	if !ok {
		return
	}

	entries, err := h.sitemap.Entries(r.Context(), site)
	if err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("site_id", site.ID.String()).
			Msg("Failed to build sitemap")
		errorpages.Unavailable(w)
		return
	}

	var buf bytes.Buffer
	if err := sitemap.WriteXML(&buf, entries); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to encode sitemap")
		errorpages.Unavailable(w)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnEvent().Err(err).Msg("Failed to write sitemap")
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	errorpages.PageNotFound(w, r.PathValue("host"))
}

func (h *Handler) lookupFailed(w http.ResponseWriter, site *models.Site, err error, msg string) {
	if !pkgerrors.IsNotFound(err) {
		logger.ErrorEvent().
			Err(err).
			Str("site_id", site.ID.String()).
			Msg(msg)
	}
	errorpages.PageNotFound(w, site.FullDomain)
}

// logListFailure records a failed list read; the page renders without it.
func (h *Handler) logListFailure(err error, site *models.Site) {
	if err != nil {
		logger.WarnEvent().
			Err(err).
			Str("site_id", site.ID.String()).
			Msg("Blog read failed, rendering empty list")
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.ErrorEvent().
			Err(err).
			Str("template", name).
			Msg("Failed to render page")
		errorpages.Unavailable(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnEvent().Err(err).Msg("Failed to write page")
	}
}
