package importer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yangtinglin69/saas/internal/db/dbtest"
	"github.com/yangtinglin69/saas/internal/server/catalog"
	"github.com/yangtinglin69/saas/internal/server/modules"
	"github.com/yangtinglin69/saas/pkg/decode"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

const productsCSV = "\xef\xbb\xbfrank,name,slug,badge,tagline,originalPrice,currentPrice,rating,imageUrl,briefReview,affiliateLink,ctaText\n" +
	"1,Cloud Mattress,cloud,Best Overall,Soft and cool,1299,999,9.4,https://img.example.com/cloud.jpg,\"Great, really\",https://aff.example.com/cloud,Check Price\n" +
	",,,,,,,,,,,\n" +
	",Budget Foam,,,,,499,,,,https://aff.example.com/foam,\n"

func xlsxFixture(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadRows_CSV(t *testing.T) {
	rows, err := ReadRows("products.csv", strings.NewReader(productsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0].Get("rank"))
	assert.Equal(t, "Great, really", rows[0].Get("briefReview"))
	assert.Equal(t, "Budget Foam", rows[1].Get("name"))
	assert.Equal(t, "", rows[1].Get("missing"))
}

func TestReadRows_XLSX(t *testing.T) {
	data := xlsxFixture(t, [][]any{
		{"question", "answer"},
		{"Is it firm?", "Medium firm."},
		{"", ""},
		{"Trial?", "100 nights."},
	})

	for _, name := range []string{"faq.xlsx", "upload"} {
		t.Run(name, func(t *testing.T) {
			rows, err := ReadRows(name, bytes.NewReader(data))
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "Is it firm?", rows[0].Get("question"))
			assert.Equal(t, "100 nights.", rows[1].Get("answer"))
		})
	}
}

func TestReadRows_Rejects(t *testing.T) {
	_, err := ReadRows("products.pdf", strings.NewReader("x"))
	assert.True(t, errors.Is(err, pkgerrors.ErrUnsupportedInput))

	_, err = ReadRows("broken.xlsx", strings.NewReader("not a workbook"))
	assert.True(t, errors.Is(err, pkgerrors.ErrUnsupportedInput))

	rows, err := ReadRows("empty.csv", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestProductsFromRows_Defaults(t *testing.T) {
	rows, err := ReadRows("products.csv", strings.NewReader(productsCSV))
	require.NoError(t, err)

	products := ProductsFromRows(rows)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "cloud", first.Slug)
	assert.Equal(t, 1299.0, first.Price.Data().Original)
	assert.Equal(t, 999.0, first.Price.Data().Current)
	assert.Equal(t, 9.4, first.Rating)
	assert.Equal(t, "https://img.example.com/cloud.jpg", first.Images.Data().Main)
	assert.Equal(t, "Check Price", first.CTAText)

	second := products[1]
	assert.Equal(t, 2, second.Rank, "rank falls back to the row position")
	assert.Equal(t, "", second.Slug)
	assert.Equal(t, DefaultRating, second.Rating)
	assert.Equal(t, DefaultCTAText, second.CTAText)
	assert.Empty(t, second.Images.Data().Gallery)
	assert.True(t, second.IsActive)
	assert.True(t, second.ShowInRanking)
}

func TestItemsFromRows(t *testing.T) {
	target, ok := LookupItemTarget(modules.KindTestimonials)
	require.True(t, ok)

	items := ItemsFromRows(target, []Row{
		{"name": "Ann", "title": "Sleeps better", "content": "Love it", "rating": "5", "ignored": "x"},
		{"name": "Bo", "content": "Fine", "rating": "five"},
	})
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{"name": "Ann", "title": "Sleeps better", "content": "Love it", "rating": 5}, items[0])
	assert.Equal(t, map[string]any{"name": "Bo", "content": "Fine"}, items[1])

	_, ok = LookupItemTarget(modules.KindHero)
	assert.False(t, ok)
}

func TestTargets(t *testing.T) {
	targets := Targets()
	assert.Equal(t, TargetProducts, targets[0])
	for _, name := range targets[1:] {
		_, ok := LookupItemTarget(name)
		assert.True(t, ok, name)
	}
}

type importEnv struct {
	importer *Importer
	catalog  *catalog.Service
	store    *modules.Store
	fx       dbtest.Fixture
}

func newImportEnv(t *testing.T) *importEnv {
	t.Helper()
	gdb := dbtest.New(t)
	fx := dbtest.Seed(t, gdb, "demo")
	products := catalog.NewService(gdb)
	store := modules.NewStore(gdb, modules.NewRegistry())
	return &importEnv{
		importer: New(products, store),
		catalog:  products,
		store:    store,
		fx:       fx,
	}
}

func TestImport_Products(t *testing.T) {
	env := newImportEnv(t)
	ctx := context.Background()

	res, err := env.importer.Import(ctx, env.fx.Site.ID, TargetProducts, "products.csv", strings.NewReader(productsCSV))
	require.NoError(t, err)
	assert.Equal(t, &Result{Target: TargetProducts, Imported: 2}, res)

	products, err := env.catalog.ListActiveProducts(ctx, env.fx.Site.ID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "cloud", products[0].Slug)
	assert.Equal(t, "budget-foam", products[1].Slug)
}

func TestImport_ProductsAllOrNothing(t *testing.T) {
	env := newImportEnv(t)
	ctx := context.Background()

	sheet := "name,slug\nOne,dup\nTwo,dup\n"
	_, err := env.importer.Import(ctx, env.fx.Site.ID, TargetProducts, "p.csv", strings.NewReader(sheet))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrSlugTaken))

	products, err := env.catalog.ListProducts(ctx, env.fx.Site.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestImport_ModuleItems(t *testing.T) {
	env := newImportEnv(t)
	ctx := context.Background()

	data := xlsxFixture(t, [][]any{
		{"question", "answer"},
		{"Is it firm?", "Medium firm."},
		{"Trial?", "100 nights."},
	})

	before := faqCount(t, env)
	res, err := env.importer.Import(ctx, env.fx.Site.ID, modules.KindFAQ, "faq.xlsx", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, before+2, faqCount(t, env))
}

func TestImport_UnknownTarget(t *testing.T) {
	env := newImportEnv(t)

	_, err := env.importer.Import(context.Background(), env.fx.Site.ID, modules.KindHero, "x.csv", strings.NewReader("a\n1\n"))
	assert.True(t, errors.Is(err, pkgerrors.ErrUnsupportedInput))
}

func TestImport_HeaderOnly(t *testing.T) {
	env := newImportEnv(t)

	res, err := env.importer.Import(context.Background(), env.fx.Site.ID, modules.KindFAQ, "faq.csv", strings.NewReader("question,answer\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Imported)
}

func faqCount(t *testing.T, env *importEnv) int {
	t.Helper()
	mod, err := env.store.Get(context.Background(), env.fx.Site.ID, modules.KindFAQ)
	if errors.Is(err, pkgerrors.ErrModuleNotFound) {
		return 0
	}
	require.NoError(t, err)

	doc, err := decode.Object(mod.Content)
	require.NoError(t, err)
	items, _ := doc["items"].([]any)
	return len(items)
}
