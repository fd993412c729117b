package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/yangtinglin69/saas/internal/db/models"
	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
	"github.com/yangtinglin69/saas/pkg/logger"
)

// ProductImporter stores imported products in one transaction.
type ProductImporter interface {
	ImportProducts(ctx context.Context, siteID uuid.UUID, products []models.Product) (int, error)
}

// ItemAppender appends items to a list field of a module document.
type ItemAppender interface {
	AppendItems(ctx context.Context, siteID uuid.UUID, kind, field string, items []map[string]any) (*models.Module, error)
}

// Result summarises an import.
type Result struct {
	Target   string `json:"target"`
	Imported int    `json:"imported"`
}

// Importer routes parsed sheets to the catalog or the module store.
type Importer struct {
	products ProductImporter
	modules  ItemAppender
}

// New creates an importer.
func New(products ProductImporter, mods ItemAppender) *Importer {
	return &Importer{
		products: products,
		modules:  mods,
	}
}

// Import parses the sheet in r and stores its rows into target. Nothing is
// stored when any row fails.
func (im *Importer) Import(ctx context.Context, siteID uuid.UUID, target, filename string, r io.Reader) (*Result, error) {
	item, isItems := LookupItemTarget(target)
	if target != TargetProducts && !isItems {
		return nil, fmt.Errorf("%w: unknown target %q", pkgerrors.ErrUnsupportedInput, target)
	}

	rows, err := ReadRows(filename, r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Result{Target: target}, nil
	}

	var n int
	if target == TargetProducts {
		n, err = im.products.ImportProducts(ctx, siteID, ProductsFromRows(rows))
	} else {
		items := ItemsFromRows(item, rows)
		_, err = im.modules.AppendItems(ctx, siteID, item.Kind, item.Field, items)
		n = len(items)
	}
	if err != nil {
		return nil, err
	}

	logger.InfoEvent().
		Str("site_id", siteID.String()).
		Str("target", target).
		Int("rows", n).
		Msg("Import completed")

	return &Result{Target: target, Imported: n}, nil
}
