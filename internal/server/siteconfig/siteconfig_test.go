package siteconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default("Best Mattress", 2025)

	assert.Equal(t, "Best Mattress", cfg.Name)
	assert.Equal(t, "Best Mattress", cfg.SEO.Title)
	assert.Equal(t, DefaultColors, cfg.Colors)
	assert.Equal(t, "© 2025 Best Mattress", cfg.Footer.Copyright)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.False(t, cfg.AdSense.Enabled)
}

func TestEncodeDecode(t *testing.T) {
	cfg := Default("Demo", 2025)
	cfg.Colors.Accent = "#ff0000"
	cfg.Tracking.GAID = "G-123"

	raw, err := cfg.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"headerBg":"#1e3a5f"`)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", got.Colors.Accent)
	assert.Equal(t, "G-123", got.Tracking.GAID)
}

func TestDecode_Malformed(t *testing.T) {
	got, err := Decode([]byte(`{"name":"Kept","colors":"not-an-object"}`))
	assert.Error(t, err)
	assert.Equal(t, "Kept", got.Name)
	assert.Equal(t, Colors{}, got.Colors)

	got, err = Decode(nil)
	assert.NoError(t, err)
	assert.Equal(t, Config{}, got)
}

func TestTheme_Fallbacks(t *testing.T) {
	cfg, err := Decode([]byte(`{"colors":{"accent":"#abcdef"}}`))
	require.NoError(t, err)

	theme := cfg.Theme()
	assert.Equal(t, "#abcdef", theme.Accent)
	assert.Equal(t, DefaultColors.HeaderBg, theme.HeaderBg)
	assert.Equal(t, DefaultColors.ButtonBg, theme.ButtonBg)
	assert.Equal(t, "700", theme.HeadingWeight)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Site", Config{}.DisplayName("Site"))
	assert.Equal(t, "Brand", Config{Name: "Brand"}.DisplayName("Site"))
}
