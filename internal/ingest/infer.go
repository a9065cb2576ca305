package ingest

import (
	"math"
	"strings"
)

// ColumnType is the semantic type inferred for a column.
type ColumnType string

const (
	TypeBoolean     ColumnType = "boolean"
	TypeInteger     ColumnType = "integer"
	TypeNumber      ColumnType = "number"
	TypeDatetime    ColumnType = "datetime"
	TypeCategorical ColumnType = "categorical"
	TypeString      ColumnType = "string"
)

// IsNumeric reports whether values of this type are summarized numerically.
func (t ColumnType) IsNumeric() bool { return t == TypeInteger || t == TypeNumber }

// IsCategorical reports whether values of this type are summarized by frequency.
func (t ColumnType) IsCategorical() bool { return t == TypeCategorical || t == TypeBoolean }

// ColumnProfile holds the shares the type rules look at.
type ColumnProfile struct {
	Rows      int // all rows, including missing cells
	NonEmpty  int
	BoolShare float64
	NumShare  float64
	// IntShare is the share of whole numbers among numeric values.
	IntShare  float64
	DateShare float64
	Distinct  int
}

// ProfileValues computes the shares used by type inference.
func ProfileValues(values []string) ColumnProfile {
	p := ColumnProfile{Rows: len(values)}
	var bools, nums, ints, dates int
	distinct := map[string]struct{}{}
	for _, raw := range values {
		if IsMissing(raw) {
			continue
		}
		v := strings.TrimSpace(raw)
		p.NonEmpty++
		distinct[v] = struct{}{}
		if IsBoolToken(v) {
			bools++
		}
		if f, ok := ParseNumber(v); ok {
			nums++
			if !math.IsInf(f, 0) && f == math.Trunc(f) {
				ints++
			}
			continue
		}
		if _, ok := ParseTime(v); ok {
			dates++
		}
	}
	p.Distinct = len(distinct)
	if p.NonEmpty > 0 {
		n := float64(p.NonEmpty)
		p.BoolShare = float64(bools) / n
		p.NumShare = float64(nums) / n
		p.DateShare = float64(dates) / n
	}
	if nums > 0 {
		p.IntShare = float64(ints) / float64(nums)
	}
	return p
}

// TypeRule maps a profile to a type when Match holds.
type TypeRule struct {
	Type  ColumnType
	Match func(ColumnProfile) bool
}

// TypeRules are evaluated in order; the first match wins.
var TypeRules = []TypeRule{
	{TypeString, func(p ColumnProfile) bool { return p.NonEmpty == 0 }},
	{TypeBoolean, func(p ColumnProfile) bool { return p.BoolShare >= 0.9 }},
	{TypeInteger, func(p ColumnProfile) bool { return p.NumShare >= 0.9 && p.IntShare >= 0.9 }},
	{TypeNumber, func(p ColumnProfile) bool { return p.NumShare >= 0.9 }},
	{TypeDatetime, func(p ColumnProfile) bool { return p.DateShare >= 0.7 }},
	{TypeCategorical, func(p ColumnProfile) bool {
		return p.Rows > 0 && p.Distinct > 0 && float64(p.Distinct)/float64(p.Rows) < 0.1
	}},
}

// InferType classifies a column from its values.
func InferType(values []string) ColumnType {
	p := ProfileValues(values)
	for _, r := range TypeRules {
		if r.Match(p) {
			return r.Type
		}
	}
	return TypeString
}

// ColumnDescriptor is the inferred schema entry for one column.
type ColumnDescriptor struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	SampleValues []string   `json:"sample_values"`
}

// InferSchema infers a descriptor per column of a row-major body.
func InferSchema(headers []string, rows []Row) []ColumnDescriptor {
	out := make([]ColumnDescriptor, 0, len(headers))
	for _, h := range headers {
		vals := Column(rows, h)
		samples := make([]string, 0, 3)
		for i := 0; i < len(vals) && i < 3; i++ {
			samples = append(samples, vals[i])
		}
		out = append(out, ColumnDescriptor{Name: h, Type: InferType(vals), SampleValues: samples})
	}
	return out
}
