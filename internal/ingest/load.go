package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Options tunes ingestion.
type Options struct {
	// HeaderScanRows is how many leading rows compete to be the header.
	HeaderScanRows int
	// PreviewRows bounds Report.Preview.
	PreviewRows int
}

// DefaultOptions returns the stock ingestion settings.
func DefaultOptions() Options {
	return Options{HeaderScanRows: 8, PreviewRows: 20}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HeaderScanRows <= 0 {
		o.HeaderScanRows = d.HeaderScanRows
	}
	if o.PreviewRows <= 0 {
		o.PreviewRows = d.PreviewRows
	}
	return o
}

// Format returns the lower-cased extension of name without the dot, or
// "unknown".
func Format(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

// IsTabular reports whether name has a spreadsheet-like extension.
func IsTabular(name string) bool {
	switch Format(name) {
	case "csv", "tsv", "xlsx", "xls", "json":
		return true
	}
	return false
}

// Parsed is a header-resolved, typed table.
type Parsed struct {
	Format string
	*Table
	Schema []ColumnDescriptor
	Info   HeaderInfo
}

// ParseTabular reads a CSV/TSV/XLSX/JSON payload into a typed table.
// JSON that is valid but not a list of records returns ErrNotTabular.
func ParseTabular(name string, data []byte, opts Options) (*Parsed, error) {
	opts = opts.withDefaults()
	format := Format(name)
	var grid Grid
	var err error
	switch format {
	case "csv":
		grid, err = ReadCSV(data, 0)
	case "tsv":
		grid, err = ReadCSV(data, '\t')
	case "xlsx", "xls":
		grid, err = ReadXLSX(data)
	case "json":
		t, jerr := ReadJSONRecords(data)
		if jerr != nil {
			return nil, jerr
		}
		return &Parsed{Format: format, Table: t, Schema: InferSchema(t.Headers, t.Rows)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errNotTabularFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return FromGrid(format, grid, opts), nil
}

var errNotTabularFormat = errors.New("not a tabular format")

// FromGrid resolves headers, drops empty edges and infers the schema.
func FromGrid(format string, grid Grid, opts Options) *Parsed {
	opts = opts.withDefaults()
	res := ResolveHeaders(grid, opts.HeaderScanRows)
	headers, body := res.Headers, res.Body
	if len(headers) > 0 {
		headers, body = dropEmptyEdges(res.Headers, res.Generated, res.Body)
	}
	t := NewTable(headers, body)
	return &Parsed{Format: format, Table: t, Schema: InferSchema(t.Headers, t.Rows), Info: res.Info}
}

// TypeOf returns the inferred type of a column, or "" if unknown.
func (p *Parsed) TypeOf(column string) ColumnType {
	for _, c := range p.Schema {
		if c.Name == column {
			return c.Type
		}
	}
	return ""
}
