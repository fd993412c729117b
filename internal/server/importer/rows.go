// Package importer bulk-loads products and module items from CSV or XLSX
// sheets.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/yangtinglin69/saas/pkg/errors"
)

// MaxFileSize caps uploaded sheets.
const MaxFileSize = 10 << 20

// Row is one data row keyed by its header cell.
type Row map[string]string

// Get returns the trimmed value of column, "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

var zipMagic = []byte("PK\x03\x04")

// ReadRows parses a sheet. The format follows the file extension and falls
// back to sniffing the content; the first row holds the headers and blank
// rows are skipped.
func ReadRows(filename string, r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: file larger than %d bytes", pkgerrors.ErrUnsupportedInput, MaxFileSize)
	}

	var records [][]string
	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case ext == ".xlsx", ext == "" && bytes.HasPrefix(data, zipMagic):
		records, err = readXLSX(data)
	case ext == ".csv", ext == ".txt", ext == "":
		records, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrUnsupportedInput, ext)
	}
	if err != nil {
		return nil, err
	}

	return toRows(records), nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrUnsupportedInput, err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrUnsupportedInput, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", pkgerrors.ErrUnsupportedInput)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return records, nil
}

func toRows(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.Trim(strings.TrimSpace(h), `"`)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(headers))
		blank := true
		for i, h := range headers {
			if h == "" || i >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v != "" {
				blank = false
			}
			row[h] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
