package utils

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// EncodeCSV renders rows in header order. Missing keys become empty cells.
func EncodeCSV[R ~map[string]string](headers []string, rows []R) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(headers))
	for _, r := range rows {
		for i, h := range headers {
			rec[i] = r[h]
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
