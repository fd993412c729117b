package modules

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangtinglin69/saas/internal/db/dbtest"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, dbtest.Fixture) {
	t.Helper()
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	return NewStore(gdb, NewRegistry()), fx
}

func TestStore_Seed(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, fx.Site.ID))

	mods, err := store.ListBySite(ctx, fx.Site.ID)
	require.NoError(t, err)
	require.Len(t, mods, 8)
	for i, m := range mods {
		assert.True(t, m.Enabled)
		assert.Equal(t, i+1, m.DisplayOrder)
	}
	assert.Equal(t, KindHero, mods[0].Kind)

	// seeding again adds nothing
	require.NoError(t, store.Seed(ctx, fx.Site.ID))
	mods, err = store.ListBySite(ctx, fx.Site.ID)
	require.NoError(t, err)
	assert.Len(t, mods, 8)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, fx := newTestStore(t)

	_, err := store.Get(context.Background(), fx.Site.ID, KindFAQ)
	assert.ErrorIs(t, err, pkgerrors.ErrModuleNotFound)
}

func TestStore_Update(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, fx.Site.ID))

	disabled := false
	order := 42
	mod, err := store.Update(ctx, fx.Site.ID, KindPainPoints, Update{
		Enabled:      &disabled,
		DisplayOrder: &order,
		Content:      json.RawMessage(`{"points":[{"icon":"😫","text":"x"}]}`),
	})
	require.NoError(t, err)
	assert.False(t, mod.Enabled)
	assert.Equal(t, 42, mod.DisplayOrder)

	got, err := store.Get(ctx, fx.Site.ID, KindPainPoints)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, 42, got.DisplayOrder)
	assert.JSONEq(t, `{"points":[{"icon":"😫","text":"x"}]}`, string(got.Content))
}

func TestStore_Update_OnlyContent(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, fx.Site.ID))

	_, err := store.Update(ctx, fx.Site.ID, KindFAQ, Update{Content: json.RawMessage(`{"items":[]}`)})
	require.NoError(t, err)

	got, err := store.Get(ctx, fx.Site.ID, KindFAQ)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.Equal(t, 8, got.DisplayOrder)
}

func TestStore_Update_CreatesMissingKnownKind(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()

	enabled := true
	mod, err := store.Update(ctx, fx.Site.ID, KindStory, Update{Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, 1, mod.DisplayOrder)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(mod.Content, &doc))
	assert.Equal(t, "我們的故事", doc["title"])

	mod, err = store.Update(ctx, fx.Site.ID, KindFAQ, Update{Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, 2, mod.DisplayOrder)
}

func TestStore_Update_Errors(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, fx.Site.ID, "countdown", Update{Content: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, pkgerrors.ErrModuleNotFound)

	_, err = store.Update(ctx, fx.Site.ID, KindHero, Update{Content: json.RawMessage(`{broken`)})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidContent)
}

func TestStore_Reorder(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, fx.Site.ID))

	require.NoError(t, store.Reorder(ctx, fx.Site.ID, []string{KindFAQ, KindHero}))

	faq, err := store.Get(ctx, fx.Site.ID, KindFAQ)
	require.NoError(t, err)
	assert.Equal(t, 1, faq.DisplayOrder)

	hero, err := store.Get(ctx, fx.Site.ID, KindHero)
	require.NoError(t, err)
	assert.Equal(t, 2, hero.DisplayOrder)

	story, err := store.Get(ctx, fx.Site.ID, KindStory)
	require.NoError(t, err)
	assert.Equal(t, 3, story.DisplayOrder)

	err = store.Reorder(ctx, fx.Site.ID, []string{KindHero, "countdown"})
	assert.ErrorIs(t, err, pkgerrors.ErrModuleNotFound)

	// the failed reorder rolled back
	hero, err = store.Get(ctx, fx.Site.ID, KindHero)
	require.NoError(t, err)
	assert.Equal(t, 2, hero.DisplayOrder)
}

func TestStore_AppendItems(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, fx.Site.ID))

	_, err := store.AppendItems(ctx, fx.Site.ID, KindFAQ, "items", []map[string]any{
		{"question": "Q1", "answer": "A1"},
		{"question": "Q2", "answer": "A2"},
	})
	require.NoError(t, err)

	mod, err := store.AppendItems(ctx, fx.Site.ID, KindFAQ, "items", []map[string]any{
		{"question": "Q3", "answer": "A3"},
	})
	require.NoError(t, err)

	var doc FAQContent
	require.NoError(t, json.Unmarshal(mod.Content, &doc))
	require.Len(t, doc.Items, 3)
	assert.Equal(t, "Q1", doc.Items[0].Question)
	assert.Equal(t, "Q3", doc.Items[2].Question)
	assert.Equal(t, "常見問題", doc.Title)

	// pain points defaults already hold three items
	mod, err = store.AppendItems(ctx, fx.Site.ID, KindPainPoints, "points", []map[string]any{{"icon": "🛏", "text": "x"}})
	require.NoError(t, err)
	var pp PainPointsContent
	require.NoError(t, json.Unmarshal(mod.Content, &pp))
	assert.Len(t, pp.Points, 4)
}

func TestStore_AppendItems_MalformedDocument(t *testing.T) {
	store, fx := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, fx.Site.ID))

	require.NoError(t, store.db.Table("modules").
		Where("site_id = ? AND kind = ?", fx.Site.ID, KindFAQ).
		Update("content", "[1,2]").Error)

	_, err := store.AppendItems(ctx, fx.Site.ID, KindFAQ, "items", []map[string]any{{"question": "Q"}})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidContent)
}

func TestStore_ListBySite_Scoped(t *testing.T) {
	store, fx := newTestStore(t)
	other := dbtest.Seed(t, store.db, "other")
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, fx.Site.ID))

	mods, err := store.ListBySite(ctx, other.Site.ID)
	require.NoError(t, err)
	assert.Empty(t, mods)
}
