package modules

// Built-in module kinds
const (
	KindHero         = "hero"
	KindPainPoints   = "painPoints"
	KindStory        = "story"
	KindMethod       = "method"
	KindComparison   = "comparison"
	KindProducts     = "products"
	KindTestimonials = "testimonials"
	KindFAQ          = "faq"
)

// Content is a decoded module content document. Each built-in kind has its
// own struct; documents of unregistered kinds decode to OpaqueContent.
type Content interface {
	Kind() string
}

// HeroContent is the first screen of the home page
type HeroContent struct {
	Badge           string `json:"badge"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Highlight       string `json:"highlight"`
	CTAText         string `json:"ctaText"`
	CTALink         string `json:"ctaLink"`
	BackgroundImage string `json:"backgroundImage"`
	YouTubeURL      string `json:"youtubeUrl"`
}

// PainPoint is one reader problem
type PainPoint struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// PainPointsContent lists reader problems
type PainPointsContent struct {
	Title  string      `json:"title"`
	Image  string      `json:"image"`
	Points []PainPoint `json:"points"`
}

// StoryContent is the narrative block
type StoryContent struct {
	Title      string   `json:"title"`
	Image      string   `json:"image"`
	Paragraphs []string `json:"paragraphs"`
	Text       string   `json:"text"`
}

// Feature is one item of the method block
type Feature struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MethodContent describes how products were evaluated
type MethodContent struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Image    string    `json:"image"`
	Features []Feature `json:"features"`
}

// ComparisonRow maps a reader type to a recommendation
type ComparisonRow struct {
	Icon           string `json:"icon"`
	Type           string `json:"type"`
	Recommendation string `json:"recommendation"`
	Reason         string `json:"reason"`
}

// ComparisonContent is the quick "which one fits you" table
type ComparisonContent struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Rows     []ComparisonRow `json:"rows"`
}

// ProductsContent configures the ranked product list
type ProductsContent struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	ShowCount int    `json:"showCount"`
}

// Testimonial is one user review
type Testimonial struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Product string `json:"product"`
	Content string `json:"content"`
	Text    string `json:"text"`
	Avatar  string `json:"avatar"`
	Rating  int    `json:"rating"`
}

// TestimonialsContent lists user reviews
type TestimonialsContent struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Items    []Testimonial `json:"items"`
}

// FAQItem is a question/answer pair
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQContent lists frequently asked questions
type FAQContent struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Items    []FAQItem `json:"items"`
}

// OpaqueContent holds a document of a kind the registry does not know.
type OpaqueContent struct {
	KindName string
	Fields   map[string]any
}

func (HeroContent) Kind() string         { return KindHero }
func (PainPointsContent) Kind() string   { return KindPainPoints }
func (StoryContent) Kind() string        { return KindStory }
func (MethodContent) Kind() string       { return KindMethod }
func (ComparisonContent) Kind() string   { return KindComparison }
func (ProductsContent) Kind() string     { return KindProducts }
func (TestimonialsContent) Kind() string { return KindTestimonials }
func (FAQContent) Kind() string          { return KindFAQ }
func (c OpaqueContent) Kind() string     { return c.KindName }
