// Package siteconfig models the free-form configuration document stored on
// every site: branding, typography, SEO, tracking, AI settings, footer and
// ad network settings.
package siteconfig

import (
	"encoding/json"
	"fmt"

	"github.com/yangtinglin69/saas/pkg/decode"
)

// Colors is the branding palette of a site
type Colors struct {
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
	Accent      string `json:"accent"`
	HeaderBg    string `json:"headerBg"`
	HeaderText  string `json:"headerText"`
	FooterBg    string `json:"footerBg"`
	FooterText  string `json:"footerText"`
	ButtonBg    string `json:"buttonBg"`
	ButtonText  string `json:"buttonText"`
	ButtonHover string `json:"buttonHover"`
}

// Typography holds font weight and style choices
type Typography struct {
	HeadingWeight string `json:"headingWeight"`
	BodyWeight    string `json:"bodyWeight"`
	HeadingItalic bool   `json:"headingItalic"`
	BodyItalic    bool   `json:"bodyItalic"`
}

// SEO holds search metadata for the home page
type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	OGImage     string   `json:"ogImage"`
}

// Tracking holds analytics identifiers
type Tracking struct {
	GAID       string `json:"gaId"`
	GTMID      string `json:"gtmId"`
	FBPixelID  string `json:"fbPixelId"`
	CustomHead string `json:"customHead"`
}

// AI holds content generation provider settings
type AI struct {
	OpenAIKey string `json:"openaiKey"`
	Model     string `json:"model"`
	Language  string `json:"language"`
}

// Footer holds footer texts
type Footer struct {
	Disclaimer string `json:"disclaimer"`
	Copyright  string `json:"copyright"`
}

// AdSense holds ad network settings
type AdSense struct {
	Enabled     bool              `json:"enabled"`
	PublisherID string            `json:"publisherId"`
	Slots       map[string]string `json:"slots"`
}

// Config is the configuration document of a site
type Config struct {
	Name       string     `json:"name"`
	Tagline    string     `json:"tagline"`
	Logo       string     `json:"logo"`
	Favicon    string     `json:"favicon"`
	SEO        SEO        `json:"seo"`
	Colors     Colors     `json:"colors"`
	Typography Typography `json:"typography"`
	Tracking   Tracking   `json:"tracking"`
	AI         AI         `json:"ai"`
	Footer     Footer     `json:"footer"`
	AdSense    AdSense    `json:"adsense"`
}

// DefaultColors is the palette new sites start with and the fallback for
// every unset color.
var DefaultColors = Colors{
	Primary:     "#1e3a5f",
	Secondary:   "#2d4a6f",
	Accent:      "#3b82f6",
	HeaderBg:    "#1e3a5f",
	HeaderText:  "#ffffff",
	FooterBg:    "#111827",
	FooterText:  "#9ca3af",
	ButtonBg:    "#22c55e",
	ButtonText:  "#ffffff",
	ButtonHover: "#16a34a",
}

// Default returns the configuration document a new site is created with.
func Default(name string, year int) Config {
	return Config{
		Name: name,
		SEO: SEO{
			Title:    name,
			Keywords: []string{},
		},
		Colors: DefaultColors,
		Typography: Typography{
			HeadingWeight: "700",
			BodyWeight:    "400",
		},
		AI: AI{
			Model:    "gpt-4o-mini",
			Language: "en",
		},
		Footer: Footer{
			Copyright: fmt.Sprintf("© %d %s", year, name),
		},
		AdSense: AdSense{Slots: map[string]string{}},
	}
}

// Decode reads a stored configuration document. Unreadable fields are left
// empty and reported in the error; the returned Config is always usable.
func Decode(raw []byte) (Config, error) {
	var cfg Config
	err := decode.JSON(raw, &cfg)
	return cfg, err
}

// Encode serializes the document for storage.
func (c Config) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// Theme is the resolved palette used when rendering pages.
type Theme struct {
	Colors
	HeadingWeight string
	BodyWeight    string
}

// Theme resolves every unset color and weight to its default.
func (c Config) Theme() Theme {
	col := c.Colors
	d := DefaultColors
	return Theme{
		Colors: Colors{
			Primary:     or(col.Primary, d.Primary),
			Secondary:   or(col.Secondary, d.Secondary),
			Accent:      or(col.Accent, d.Accent),
			HeaderBg:    or(col.HeaderBg, d.HeaderBg),
			HeaderText:  or(col.HeaderText, d.HeaderText),
			FooterBg:    or(col.FooterBg, d.FooterBg),
			FooterText:  or(col.FooterText, d.FooterText),
			ButtonBg:    or(col.ButtonBg, d.ButtonBg),
			ButtonText:  or(col.ButtonText, d.ButtonText),
			ButtonHover: or(col.ButtonHover, d.ButtonHover),
		},
		HeadingWeight: or(c.Typography.HeadingWeight, "700"),
		BodyWeight:    or(c.Typography.BodyWeight, "400"),
	}
}

// DisplayName returns the configured name, falling back to siteName.
func (c Config) DisplayName(siteName string) string {
	return or(c.Name, siteName)
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
