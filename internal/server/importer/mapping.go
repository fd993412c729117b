package importer

import (
	"strconv"

	"gorm.io/datatypes"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/modules"
)

// TargetProducts imports catalog rows instead of module items.
const TargetProducts = "products"

// DefaultRating is given to product rows without a usable rating.
const DefaultRating = 8.0

// DefaultCTAText labels the affiliate button when a row leaves it empty.
const DefaultCTAText = "Shop Now →"

// ProductColumns are the recognised product sheet headers.
var ProductColumns = []string{
	"rank", "name", "slug", "badge", "tagline", "originalPrice", "currentPrice",
	"rating", "imageUrl", "briefReview", "affiliateLink", "ctaText",
}

// ItemTarget describes where the rows of a module import land.
type ItemTarget struct {
	Kind    string
	Field   string
	Columns []string
}

var itemTargets = map[string]ItemTarget{
	modules.KindPainPoints:   {Kind: modules.KindPainPoints, Field: "points", Columns: []string{"icon", "text"}},
	modules.KindMethod:       {Kind: modules.KindMethod, Field: "features", Columns: []string{"icon", "title", "description"}},
	modules.KindTestimonials: {Kind: modules.KindTestimonials, Field: "items", Columns: []string{"name", "title", "content", "product", "avatar", "rating"}},
	modules.KindFAQ:          {Kind: modules.KindFAQ, Field: "items", Columns: []string{"question", "answer"}},
	modules.KindComparison:   {Kind: modules.KindComparison, Field: "rows", Columns: []string{"icon", "type", "recommendation", "reason"}},
}

// LookupItemTarget returns the module target of name.
func LookupItemTarget(name string) (ItemTarget, bool) {
	t, ok := itemTargets[name]
	return t, ok
}

// Targets lists every accepted import target.
func Targets() []string {
	return []string{
		TargetProducts,
		modules.KindPainPoints,
		modules.KindMethod,
		modules.KindComparison,
		modules.KindTestimonials,
		modules.KindFAQ,
	}
}

// ProductsFromRows maps sheet rows to products. A missing or unparsable
// rank falls back to the row position; the slug is derived from the name
// when empty. Imported products are active and shown in the ranking.
func ProductsFromRows(rows []Row) []models.Product {
	products := make([]models.Product, 0, len(rows))
	for i, row := range rows {
		rank, err := strconv.Atoi(row.Get("rank"))
		if err != nil || rank == 0 {
			rank = i + 1
		}

		rating := parseFloat(row.Get("rating"))
		if rating == 0 {
			rating = DefaultRating
		}

		cta := row.Get("ctaText")
		if cta == "" {
			cta = DefaultCTAText
		}

		products = append(products, models.Product{
			Rank:    rank,
			Name:    row.Get("name"),
			Slug:    row.Get("slug"),
			Badge:   row.Get("badge"),
			Tagline: row.Get("tagline"),
			Price: datatypes.NewJSONType(models.Price{
				Original: parseFloat(row.Get("originalPrice")),
				Current:  parseFloat(row.Get("currentPrice")),
				Currency: "USD",
			}),
			Rating: rating,
			Images: datatypes.NewJSONType(models.Images{
				Main:    row.Get("imageUrl"),
				Gallery: []string{},
			}),
			BriefReview:   row.Get("briefReview"),
			AffiliateLink: row.Get("affiliateLink"),
			CTAText:       cta,
			ShowInRanking: true,
			IsActive:      true,
		})
	}
	return products
}

// ItemsFromRows keeps the target's columns of every row. Testimonial
// ratings become numbers so the star rendering can read them.
func ItemsFromRows(target ItemTarget, rows []Row) []map[string]any {
	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		item := make(map[string]any, len(target.Columns))
		for _, col := range target.Columns {
			v, ok := row[col]
			if !ok {
				continue
			}
			if col == "rating" {
				if n, err := strconv.Atoi(v); err == nil {
					item[col] = n
				}
				continue
			}
			item[col] = v
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
