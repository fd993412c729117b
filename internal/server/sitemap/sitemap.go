// Package sitemap derives the indexable URL set of a site.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

// DefaultGroupSize is the number of URLs per submission group.
const DefaultGroupSize = 500

// Entry kinds
const (
	KindHome    = "home"
	KindProduct = "product"
	KindPost    = "post"
)

// Entry is one canonical URL.
type Entry struct {
	URL          string    `json:"url"`
	Kind         string    `json:"kind"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"last_modified"`
	ChangeFreq   string    `json:"change_freq"`
	Priority     float64   `json:"priority"`
}

// ProductLister lists the active products of a site in rank order.
type ProductLister interface {
	ListActiveProducts(ctx context.Context, siteID uuid.UUID) ([]models.Product, error)
}

// PostLister lists the published posts of a site, newest first.
type PostLister interface {
	ListPublished(ctx context.Context, siteID uuid.UUID) ([]models.Post, error)
}

// Options tunes a Generator.
type Options struct {
	Scheme    string
	GroupSize int
}

// Generator builds sitemaps from fresh reads on every call.
type Generator struct {
	products ProductLister
	posts    PostLister
	opts     Options
}

// NewGenerator creates a sitemap generator.
func NewGenerator(products ProductLister, posts PostLister, opts Options) *Generator {
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.GroupSize <= 0 {
		opts.GroupSize = DefaultGroupSize
	}

	return &Generator{
		products: products,
		posts:    posts,
		opts:     opts,
	}
}

// Entries returns the home page, the active products by rank and the
// published posts by recency, in that order. A failed read fails the whole
// set so the feed never drops URLs silently.
func (g *Generator) Entries(ctx context.Context, site *models.Site) ([]Entry, error) {
	products, err := g.products.ListActiveProducts(ctx, site.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read products for sitemap")
	}

	posts, err := g.posts.ListPublished(ctx, site.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read posts for sitemap")
	}

	base := site.BaseURL(g.opts.Scheme)
	entries := make([]Entry, 0, 1+len(products)+len(posts))

	entries = append(entries, Entry{
		URL:          base,
		Kind:         KindHome,
		Title:        site.Name,
		LastModified: site.UpdatedAt,
		ChangeFreq:   "daily",
		Priority:     1.0,
	})

	for _, p := range products {
		entries = append(entries, Entry{
			URL:          base + "/products/" + p.Slug,
			Kind:         KindProduct,
			Title:        p.Name,
			LastModified: p.UpdatedAt,
			ChangeFreq:   "weekly",
			Priority:     0.8,
		})
	}

	for _, p := range posts {
		entries = append(entries, Entry{
			URL:          base + "/blog/" + p.Slug,
			Kind:         KindPost,
			Title:        p.Title,
			LastModified: p.UpdatedAt,
			ChangeFreq:   "monthly",
			Priority:     0.6,
		})
	}

	return entries, nil
}

// Groups returns the entries of site chunked by the configured group size.
func (g *Generator) Groups(ctx context.Context, site *models.Site) ([][]Entry, error) {
	entries, err := g.Entries(ctx, site)
	if err != nil {
		return nil, err
	}
	return Groups(entries, g.opts.GroupSize), nil
}

// GroupSize returns the configured group size.
func (g *Generator) GroupSize() int {
	return g.opts.GroupSize
}

// Groups splits entries into consecutive chunks of at most size entries.
// Concatenating the chunks yields entries again.
func Groups(entries []Entry, size int) [][]Entry {
	if size <= 0 {
		size = DefaultGroupSize
	}

	groups := make([][]Entry, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		groups = append(groups, entries[start:end:end])
	}
	return groups
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// WriteXML writes entries as a sitemaps.org urlset document.
func WriteXML(w io.Writer, entries []Entry) error {
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]xmlURL, 0, len(entries)),
	}
	for _, e := range entries {
		u := xmlURL{
			Loc:        e.URL,
			ChangeFreq: e.ChangeFreq,
			Priority:   strconv.FormatFloat(e.Priority, 'f', 1, 64),
		}
		if !e.LastModified.IsZero() {
			u.LastMod = e.LastModified.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, u)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return enc.Flush()
}
