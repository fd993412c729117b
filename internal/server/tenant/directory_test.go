package tenant

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yangtinglin69/saas/internal/db/dbtest"
	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/modules"
	"github.com/yangtinglin69/saas/internal/server/siteconfig"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

func newDirectory(t *testing.T, gdb *gorm.DB, stripWWW bool) *Directory {
	t.Helper()
	return NewDirectory(gdb, modules.NewStore(gdb, modules.NewRegistry()), stripWWW)
}

func TestResolveHost(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	dir := newDirectory(t, gdb, false)
	ctx := context.Background()

	hosts := []string{
		"demo.example.com",
		"demo.example.com:8080",
		"demo.example.com:443",
		"DEMO.Example.COM",
		"demo.example.com.",
	}
	for _, host := range hosts {
		t.Run(host, func(t *testing.T) {
			site, err := dir.ResolveHost(ctx, host)
			require.NoError(t, err)
			assert.Equal(t, fx.Site.ID, site.ID)
		})
	}

	for _, host := range []string{"", "unknown.example.com", "www.demo.example.com", "example.com"} {
		t.Run("miss "+host, func(t *testing.T) {
			_, err := dir.ResolveHost(ctx, host)
			assert.ErrorIs(t, err, pkgerrors.ErrSiteNotFound)
		})
	}
}

func TestResolveHost_StripWWW(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	dir := newDirectory(t, gdb, true)

	site, err := dir.ResolveHost(context.Background(), "www.demo.example.com:80")
	require.NoError(t, err)
	assert.Equal(t, fx.Site.ID, site.ID)
}

func TestResolveHost_DeactivatedSite(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	dir := newDirectory(t, gdb, false)
	ctx := context.Background()

	require.NoError(t, dir.SetActive(ctx, fx.User.ID, fx.Site.ID, false))

	_, err := dir.ResolveHost(ctx, "demo.example.com")
	assert.ErrorIs(t, err, pkgerrors.ErrSiteNotFound)

	// the record stays and can be re-enabled
	site, err := dir.GetSite(ctx, fx.User.ID, fx.Site.ID)
	require.NoError(t, err)
	assert.False(t, site.IsActive)

	require.NoError(t, dir.SetActive(ctx, fx.User.ID, fx.Site.ID, true))
	_, err = dir.ResolveHost(ctx, "demo.example.com")
	assert.NoError(t, err)
}

func TestCreateSite(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	dir := newDirectory(t, gdb, false)
	ctx := context.Background()

	site, err := dir.CreateSite(ctx, fx.User.ID, CreateSiteInput{
		DomainID:  fx.Domain.ID,
		Subdomain: " Mattress ",
		Name:      "Mattress Reviews",
	})
	require.NoError(t, err)
	assert.Equal(t, "mattress", site.Subdomain)
	assert.Equal(t, "mattress.example.com", site.FullDomain)
	assert.True(t, site.IsActive)

	cfg, err := siteconfig.Decode(site.Config)
	require.NoError(t, err)
	assert.Equal(t, "Mattress Reviews", cfg.Name)

	var mods []models.Module
	require.NoError(t, gdb.Where("site_id = ?", site.ID).Order("display_order ASC").Find(&mods).Error)
	require.Len(t, mods, 8)
	assert.Equal(t, modules.KindHero, mods[0].Kind)
	assert.Equal(t, modules.KindFAQ, mods[7].Kind)

	resolved, err := dir.ResolveHost(ctx, "mattress.example.com")
	require.NoError(t, err)
	assert.Equal(t, site.ID, resolved.ID)
}

func TestCreateSite_Errors(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	dir := newDirectory(t, gdb, false)
	ctx := context.Background()

	inactive, err := dir.CreateDomain(ctx, "retired.com", "")
	require.NoError(t, err)
	require.NoError(t, dir.SetDomainActive(ctx, inactive.ID, false))

	tests := []struct {
		name string
		in   CreateSiteInput
		err  error
	}{
		{"hostname taken", CreateSiteInput{DomainID: fx.Domain.ID, Subdomain: "demo", Name: "x"}, pkgerrors.ErrHostnameTaken},
		{"invalid subdomain", CreateSiteInput{DomainID: fx.Domain.ID, Subdomain: "-bad-", Name: "x"}, pkgerrors.ErrInvalidSubdomain},
		{"reserved subdomain", CreateSiteInput{DomainID: fx.Domain.ID, Subdomain: "admin", Name: "x"}, pkgerrors.ErrInvalidSubdomain},
		{"unknown domain", CreateSiteInput{DomainID: uuid.New(), Subdomain: "fresh", Name: "x"}, pkgerrors.ErrDomainNotFound},
		{"inactive domain", CreateSiteInput{DomainID: inactive.ID, Subdomain: "fresh", Name: "x"}, pkgerrors.ErrDomainInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dir.CreateSite(ctx, fx.User.ID, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	// a failed creation leaves no orphan modules behind
	var count int64
	require.NoError(t, gdb.Model(&models.Module{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSitesScopedToOwner(t *testing.T) {
	gdb := dbtest.New(t)
	a := dbtest.Seed(t, gdb, "alpha")
	b := dbtest.Seed(t, gdb, "beta")
	dir := newDirectory(t, gdb, false)
	ctx := context.Background()

	_, err := dir.GetSite(ctx, b.User.ID, a.Site.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrSiteNotFound)

	err = dir.SetActive(ctx, b.User.ID, a.Site.ID, false)
	assert.ErrorIs(t, err, pkgerrors.ErrSiteNotFound)

	sites, err := dir.ListSites(ctx, a.User.ID)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "alpha.example.com", sites[0].FullDomain)
	require.NotNil(t, sites[0].Domain)
	assert.Equal(t, "example.com", sites[0].Domain.Domain)
}

func TestUpdateSite(t *testing.T) {
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	dir := newDirectory(t, gdb, false)
	ctx := context.Background()

	name := "Renamed"
	cfg, err := json.Marshal(map[string]any{"name": "Brand", "colors": map[string]any{"primary": "#000000"}})
	require.NoError(t, err)

	site, err := dir.UpdateSite(ctx, fx.User.ID, fx.Site.ID, UpdateSiteInput{Name: &name, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", site.Name)

	got, err := dir.GetSite(ctx, fx.User.ID, fx.Site.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	decoded, err := siteconfig.Decode(got.Config)
	require.NoError(t, err)
	assert.Equal(t, "#000000", decoded.Colors.Primary)

	_, err = dir.UpdateSite(ctx, fx.User.ID, fx.Site.ID, UpdateSiteInput{Config: json.RawMessage(`{oops`)})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidContent)
}

func TestDomains(t *testing.T) {
	gdb := dbtest.New(t)
	dir := newDirectory(t, gdb, false)
	ctx := context.Background()

	d, err := dir.CreateDomain(ctx, " Reviews.NET ", "Reviews")
	require.NoError(t, err)
	assert.Equal(t, "reviews.net", d.Domain)
	assert.True(t, d.IsActive)

	_, err = dir.CreateDomain(ctx, "reviews.net", "")
	assert.ErrorIs(t, err, pkgerrors.ErrDomainTaken)

	_, err = dir.CreateDomain(ctx, "not a domain", "")
	assert.Error(t, err)

	_, err = dir.CreateDomain(ctx, "alpha.io", "")
	require.NoError(t, err)

	domains, err := dir.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "alpha.io", domains[0].Domain)
	assert.Equal(t, "alpha.io", domains[0].Name)

	require.NoError(t, dir.SetDomainActive(ctx, d.ID, false))
	assert.ErrorIs(t, dir.SetDomainActive(ctx, uuid.New(), false), pkgerrors.ErrDomainNotFound)

	got, err := dir.GetDomain(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = dir.GetDomain(ctx, uuid.New())
	assert.ErrorIs(t, err, pkgerrors.ErrDomainNotFound)
}
