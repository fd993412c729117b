package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangtinglin69/saas/internal/db/models"
	"github.com/yangtinglin69/saas/internal/server/importer"
	"github.com/yangtinglin69/saas/internal/server/sitemap"
)

func (e *testEnv) createProduct(t *testing.T, body map[string]any) models.Product {
	t.Helper()
	rec := e.do(t, "POST", e.sitePath("/products"), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[models.Product](t, rec)
}

func TestProductCRUD(t *testing.T) {
	env := newTestEnv(t)

	created := env.createProduct(t, map[string]any{
		"name":  "Cloud Mattress",
		"rank":  2,
		"price": map[string]any{"original": 1299, "current": 999, "currency": "USD"},
	})
	assert.Equal(t, "cloud-mattress", created.Slug)
	assert.True(t, created.IsActive)
	assert.True(t, created.ShowInRanking)
	assert.Equal(t, 999.0, created.Price.Data().Current)

	env.createProduct(t, map[string]any{"name": "Foam", "slug": "foam", "rank": 1, "is_active": false})

	rec := env.do(t, "GET", env.sitePath("/products"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[[]models.Product](t, rec), 2)

	productPath := env.sitePath("/products/" + created.ID.String())

	rec = env.do(t, "PUT", productPath, map[string]any{"tagline": "Cooler sleep", "rank": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeJSON[models.Product](t, rec)
	assert.Equal(t, "Cooler sleep", updated.Tagline)
	assert.Equal(t, "Cloud Mattress", updated.Name, "omitted fields are kept")
	assert.Equal(t, 999.0, updated.Price.Data().Current)

	rec = env.do(t, "PATCH", productPath+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJSON[models.Product](t, rec).IsActive)

	rec = env.do(t, "GET", productPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJSON[models.Product](t, rec).IsActive)

	rec = env.do(t, "GET", env.sitePath("/products/"+uuid.NewString()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProduct_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct(t, map[string]any{"name": "Foam", "slug": "foam"})

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"duplicate slug", map[string]any{"name": "Foam 2", "slug": "foam"}, http.StatusConflict},
		{"invalid slug", map[string]any{"name": "Bad", "slug": "Not A Slug"}, http.StatusBadRequest},
		{"missing name", map[string]any{"slug": "nameless"}, http.StatusBadRequest},
		{"malformed", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", env.sitePath("/products"), tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func (e *testEnv) upload(t *testing.T, target, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", e.sitePath("/import/"+target), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	return e.serve(req)
}

func TestImportFile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, importer.TargetProducts, "products.csv",
		"rank,name,slug,currentPrice\n1,Cloud,cloud,999\n2,Foam,,499\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, importer.Result{Target: "products", Imported: 2}, decodeJSON[importer.Result](t, rec))

	rec = env.do(t, "GET", env.sitePath("/products"), nil)
	products := decodeJSON[[]models.Product](t, rec)
	require.Len(t, products, 2)

	rec = env.upload(t, "faq", "faq.csv", "question,answer\nTrial?,100 nights\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeJSON[importer.Result](t, rec).Imported)

	rec = env.upload(t, "hero", "hero.csv", "title\nx\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.upload(t, "products", "products.pdf", "%PDF")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a duplicate slug rolls back the whole batch
	rec = env.upload(t, "products", "again.csv", "name,slug\nNew,new\nCloud,cloud\n")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = env.do(t, "GET", env.sitePath("/products"), nil)
	assert.Len(t, decodeJSON[[]models.Product](t, rec), 2)
}

func TestImportFile_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", env.sitePath("/import/products"), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	assert.Equal(t, http.StatusBadRequest, env.serve(req).Code)

	rec := env.do(t, "POST", env.sitePath("/import/products"), "{}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type sitemapResponse struct {
	Host      string            `json:"host"`
	GroupSize int               `json:"group_size"`
	Total     int               `json:"total"`
	Groups    [][]sitemap.Entry `json:"groups"`
}

func TestSitemapGroups(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"A", "B", "C"} {
		env.createProduct(t, map[string]any{"name": name})
	}

	rec := env.do(t, "GET", env.sitePath("/sitemap"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeJSON[sitemapResponse](t, rec)

	assert.Equal(t, "demo.example.com", resp.Host)
	assert.Equal(t, 2, resp.GroupSize)
	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "https://demo.example.com", resp.Groups[0][0].URL)
}
