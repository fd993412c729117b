package modules

import (
	"strings"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/siteconfig"
)

// builtins returns the built-in kinds in their default display order.
func builtins() []Definition {
	return []Definition{
		Define(KindHero, heroDefaults, heroView),
		Define(KindPainPoints, painPointsDefaults, painPointsView),
		Define(KindStory, storyDefaults, storyView),
		Define(KindMethod, methodDefaults, methodView),
		Define(KindComparison, comparisonDefaults, comparisonView),
		Define(KindProducts, productsDefaults, productsView),
		Define(KindTestimonials, testimonialsDefaults, testimonialsView),
		Define(KindFAQ, faqDefaults, faqView),
	}
}

type heroData struct {
	HeroContent
	Theme    siteconfig.Theme
	EmbedURL string
}

// hero always renders. An empty title falls back to the default one, and
// a document with neither title nor subtitle gets the default subtitle too.
func heroView(c HeroContent, env Env) (any, bool) {
	if blank(c.Title) && blank(c.Subtitle) {
		c.Subtitle = heroDefaults()["subtitle"].(string)
	}
	c.Title = orDefault(c.Title, heroDefaults()["title"].(string))
	if c.CTAText != "" {
		c.CTALink = orDefault(c.CTALink, "#products")
	}
	return heroData{HeroContent: c, Theme: env.Theme, EmbedURL: youTubeEmbedURL(c.YouTubeURL)}, true
}

func painPointsView(c PainPointsContent, env Env) (any, bool) {
	points := make([]PainPoint, 0, len(c.Points))
	for _, p := range c.Points {
		if blank(p.Text) {
			continue
		}
		p.Icon = orDefault(p.Icon, "😫")
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, false
	}
	c.Points = points
	c.Title = orDefault(c.Title, "你是不是也有這些困擾？")
	return struct {
		PainPointsContent
		Theme siteconfig.Theme
	}{c, env.Theme}, true
}

func storyView(c StoryContent, env Env) (any, bool) {
	paragraphs := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		if !blank(p) {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		if blank(c.Text) {
			return nil, false
		}
		paragraphs = []string{c.Text}
	}
	c.Paragraphs = paragraphs
	c.Title = orDefault(c.Title, "我的故事")
	return struct {
		StoryContent
		Theme siteconfig.Theme
	}{c, env.Theme}, true
}

func methodView(c MethodContent, env Env) (any, bool) {
	features := make([]Feature, 0, len(c.Features))
	for _, f := range c.Features {
		if blank(f.Title) && blank(f.Description) {
			continue
		}
		f.Icon = orDefault(f.Icon, "✨")
		features = append(features, f)
	}
	if len(features) == 0 {
		return nil, false
	}
	c.Features = features
	c.Title = orDefault(c.Title, "我們的方法")
	return struct {
		MethodContent
		Theme siteconfig.Theme
	}{c, env.Theme}, true
}

func comparisonView(c ComparisonContent, env Env) (any, bool) {
	rows := make([]ComparisonRow, 0, len(c.Rows))
	for _, row := range c.Rows {
		if blank(row.Type) && blank(row.Recommendation) {
			continue
		}
		row.Icon = orDefault(row.Icon, "👤")
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, false
	}
	c.Rows = rows
	c.Title = orDefault(c.Title, "哪一款適合你？")
	return struct {
		ComparisonContent
		Theme siteconfig.Theme
	}{c, env.Theme}, true
}

// ProductCard is the rendered summary of one ranked product.
type ProductCard struct {
	Position      int
	Slug          string
	Name          string
	Badge         string
	Tagline       string
	Rating        float64
	Image         string
	Price         models.Price
	ShowOriginal  bool
	Specs         []models.Spec
	BriefReview   string
	AffiliateLink string
	CTAText       string
	DetailURL     string
}

type productsData struct {
	ProductsContent
	Theme siteconfig.Theme
	Cards []ProductCard
}

// products always renders; its items come from the catalog, not the
// module document.
func productsView(c ProductsContent, env Env) (any, bool) {
	limit := c.ShowCount
	if limit <= 0 {
		limit = env.DefaultShowCount
	}
	if limit <= 0 {
		limit = DefaultShowCount
	}

	ranked := RankingSlice(env.Products, limit)
	cards := make([]ProductCard, 0, len(ranked))
	for i := range ranked {
		cards = append(cards, NewProductCard(&ranked[i], i+1, env.BasePath))
	}

	c.Title = orDefault(c.Title, "TOP 10 產品評比")
	return productsData{ProductsContent: c, Theme: env.Theme, Cards: cards}, true
}

// RankingSlice returns the first limit products that are shown in the
// ranking, keeping their order. Inactive products never appear.
func RankingSlice(products []models.Product, limit int) []models.Product {
	out := make([]models.Product, 0, min(limit, len(products)))
	for _, p := range products {
		if len(out) == limit {
			break
		}
		if !p.IsActive || !p.ShowInRanking {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NewProductCard builds the card of p at the given 1-based position.
func NewProductCard(p *models.Product, position int, basePath string) ProductCard {
	price := p.Price.Data()
	specs := []models.Spec(p.Specs)
	if len(specs) > 3 {
		specs = specs[:3]
	}
	return ProductCard{
		Position:      position,
		Slug:          p.Slug,
		Name:          p.Name,
		Badge:         p.Badge,
		Tagline:       p.Tagline,
		Rating:        p.Rating,
		Image:         p.Images.Data().Main,
		Price:         price,
		ShowOriginal:  price.Original > price.Current,
		Specs:         specs,
		BriefReview:   p.BriefReview,
		AffiliateLink: p.AffiliateLink,
		CTAText:       orDefault(p.CTAText, "Shop Now →"),
		DetailURL:     basePath + "/products/" + p.Slug,
	}
}

func testimonialsView(c TestimonialsContent, env Env) (any, bool) {
	items := make([]Testimonial, 0, len(c.Items))
	for _, it := range c.Items {
		it.Content = orDefault(it.Content, it.Text)
		if blank(it.Content) {
			continue
		}
		it.Title = orDefault(it.Title, it.Product)
		it.Avatar = orDefault(it.Avatar, "👤")
		if it.Rating <= 0 || it.Rating > 5 {
			it.Rating = 5
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, false
	}
	c.Items = items
	c.Title = orDefault(c.Title, "用戶評價")
	return struct {
		TestimonialsContent
		Theme siteconfig.Theme
	}{c, env.Theme}, true
}

func faqView(c FAQContent, env Env) (any, bool) {
	items := make([]FAQItem, 0, len(c.Items))
	for _, it := range c.Items {
		if blank(it.Question) {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, false
	}
	c.Items = items
	c.Title = orDefault(c.Title, "常見問題")
	return struct {
		FAQContent
		Theme siteconfig.Theme
	}{c, env.Theme}, true
}

func youTubeEmbedURL(u string) string {
	if u == "" {
		return ""
	}
	u = strings.Replace(u, "watch?v=", "embed/", 1)
	return strings.Replace(u, "youtu.be/", "www.youtube.com/embed/", 1)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func orDefault(v, fallback string) string {
	if blank(v) {
		return fallback
	}
	return v
}
