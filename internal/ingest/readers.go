package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SniffDelimiter picks the candidate separator that appears most consistently
// across the first lines of data.
func SniffDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	var lines []string
	for sc.Scan() && len(lines) < 6 {
		if l := sc.Text(); strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	best, bestScore := ',', 0
	for _, c := range candidates {
		minCount := -1
		for _, l := range lines {
			n := strings.Count(l, string(c))
			if minCount < 0 || n < minCount {
				minCount = n
			}
		}
		if minCount > bestScore {
			best, bestScore = c, minCount
		}
	}
	return best
}

// ReadCSV reads delimited text into a raw grid. A zero delim is sniffed.
func ReadCSV(data []byte, delim rune) (Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if delim == 0 {
		delim = SniffDelimiter(data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	var g Grid
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(g)+1, err)
		}
		g = append(g, rec)
	}
	return g, nil
}

// ReadXLSX reads the first sheet that holds any rows.
func ReadXLSX(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}
	for _, sh := range sheets {
		rows, err := f.GetRows(sh)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sh, err)
		}
		if len(rows) > 0 {
			return Grid(rows), nil
		}
	}
	return nil, nil
}

// ErrNotTabular marks JSON that is valid but not an array of records.
var ErrNotTabular = errors.New("json is not an array of records")

// ReadJSONRecords decodes an array of objects (or {"data": [...]}) into a
// table. Column order follows first appearance of each key.
func ReadJSONRecords(data []byte) (*Table, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapped struct {
			Data []json.RawMessage `json:"data"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil || wrapped.Data == nil {
			if json.Valid(data) {
				return nil, ErrNotTabular
			}
			return nil, fmt.Errorf("decode json: %w", err)
		}
		items = wrapped.Data
	}
	var headers []string
	seen := map[string]bool{}
	records := make([]map[string]string, 0, len(items))
	for i, raw := range items {
		keys, vals, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
		records = append(records, vals)
	}
	if len(headers) == 0 {
		return nil, ErrNotTabular
	}
	clean := CleanHeaders(headers)
	t := &Table{Headers: clean, Rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		r := make(Row, len(clean))
		for j, h := range headers {
			r[clean[j]] = rec[h]
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

// decodeObject returns an object's keys in document order and its values
// rendered as cell strings.
func decodeObject(raw json.RawMessage) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, ErrNotTabular
	}
	var keys []string
	vals := map[string]string{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := vals[key]; !dup {
			keys = append(keys, key)
		}
		vals[key] = cellString(v)
	}
	return keys, vals, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// Records is a JSON array of objects decoded into rows of cell strings, as
// sent in request bodies. Keys holds object keys in first-appearance order.
type Records struct {
	Keys []string
	Rows []Row
}

// UnmarshalJSON decodes an array of objects; null decodes to no rows.
func (r *Records) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	seen := map[string]bool{}
	r.Keys, r.Rows = nil, make([]Row, 0, len(items))
	for i, raw := range items {
		keys, vals, err := decodeObject(raw)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				r.Keys = append(r.Keys, k)
			}
		}
		r.Rows = append(r.Rows, Row(vals))
	}
	return nil
}

// MarshalJSON writes the rows as an array of objects.
func (r Records) MarshalJSON() ([]byte, error) {
	if r.Rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Rows)
}
