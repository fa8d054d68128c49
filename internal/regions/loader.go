package regions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatFromName guesses the asset format from a file name or object key.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported region asset format: %q", name)
	}
}

// asset accepts both the "entries/code/regions" layout and the legacy
// "plat_nomor/kode/daerah" layout used by older data.json assets.
type asset struct {
	Entries []struct {
		Code    string   `json:"code"`
		Regions []string `json:"regions"`
	} `json:"entries"`
	Legacy []struct {
		Code    string   `json:"kode"`
		Regions []string `json:"daerah"`
	} `json:"plat_nomor"`
}

// ParseJSON reads region records from a JSON asset.
func ParseJSON(r io.Reader) ([]Record, error) {
	var doc asset
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode region json: %w", err)
	}

	records := make([]Record, 0, len(doc.Entries)+len(doc.Legacy))
	for _, e := range doc.Entries {
		records = append(records, Record{Code: e.Code, Regions: e.Regions})
	}
	for _, e := range doc.Legacy {
		records = append(records, Record{Code: e.Code, Regions: e.Regions})
	}
	return records, nil
}

// ParseXLSX reads region records from the first sheet of a workbook:
// column A holds the code, every following non-empty cell a region name.
// A first row whose code cell reads "code" or "kode" is treated as a header.
func ParseXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open region workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if i == 0 && isHeader(row[0]) {
			continue
		}
		rec := Record{Code: row[0]}
		for _, cell := range row[1:] {
			for _, name := range strings.Split(cell, ";") {
				if name = strings.TrimSpace(name); name != "" {
					rec.Regions = append(rec.Regions, name)
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func isHeader(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "code", "kode":
		return true
	}
	return false
}

// Parse dispatches on format and builds a Table.
func Parse(r io.Reader, format Format) (*Table, error) {
	var (
		records []Record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = ParseJSON(r)
	case FormatXLSX:
		records, err = ParseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported region asset format: %q", format)
	}
	if err != nil {
		return nil, err
	}
	return NewTable(records)
}

// LoadFile reads a JSON or XLSX asset from disk.
func LoadFile(path string) (*Table, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region asset: %w", err)
	}
	defer f.Close()

	return Parse(f, format)
}

// ObjectGetter fetches a stored object's bytes.
type ObjectGetter interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// LoadObject reads a JSON or XLSX asset from object storage.
func LoadObject(ctx context.Context, store ObjectGetter, key string) (*Table, error) {
	format, err := FormatFromName(key)
	if err != nil {
		return nil, err
	}
	data, err := store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download region asset %q: %w", key, err)
	}
	return Parse(bytes.NewReader(data), format)
}

// RecordLister lists persisted records in table order.
type RecordLister interface {
	ListRegions(ctx context.Context) ([]Record, error)
}

// LoadStore builds a Table from a persisted reference.
func LoadStore(ctx context.Context, store RecordLister) (*Table, error) {
	records, err := store.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return NewTable(records)
}
