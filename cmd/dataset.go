package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/smartdoc/internal/analysis"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/store"
	"github.com/KaramelBytes/smartdoc/internal/utils"
)

func ingestOptions() ingest.Options {
	c := settings()
	return ingest.Options{HeaderScanRows: c.HeaderScanRows, PreviewRows: c.PreviewRows}
}

func analysisOptions() analysis.Options {
	return analysis.Options{MaxCells: settings().MaxCells}
}

// scrutinizeFile reads and scrutinizes path. parsed is nil for non-tabular
// files.
func scrutinizeFile(path string) (*ingest.Report, *ingest.Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	rep, parsed := ingest.Scrutinize(filepath.Base(path), data, time.Now(), ingestOptions())
	return rep, parsed, nil
}

// openDataset parses a tabular file into a fresh registry. The dataset id is
// the file's base name without extension.
func openDataset(path string) (*store.Registry, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	p, err := ingest.ParseTabular(filepath.Base(path), data, ingestOptions())
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", path, err)
	}
	id := datasetID(path)
	reg := store.New()
	reg.Put(id, p.Headers, p.Rows)
	logger.Debug("dataset loaded", "id", id, "rows", len(p.Rows), "columns", len(p.Headers))
	return reg, id, nil
}

func datasetID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeDataset saves the current state of dataset id as CSV.
func writeDataset(reg *store.Registry, id, path string) error {
	ds, err := reg.Get(id)
	if err != nil {
		return err
	}
	return writeRows(path, ds.Headers, ds.Rows)
}

func writeRows(path string, headers []string, rows []ingest.Row) error {
	b, err := utils.EncodeCSV(headers, rows)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
