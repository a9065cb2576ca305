// Package classify maps the text of a dataset (headers, sample values, text
// blocks) to a coarse business-domain label.
package classify

import (
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
)

// Generic is the label returned when nothing in the text points at a domain.
const Generic = "generic"

// Method names reported alongside a Result.
const (
	MethodModel    = "ml"
	MethodKeyword  = "keyword"
	MethodFallback = "fallback"
)

// Alternative is a runner-up label.
type Alternative struct {
	Label      string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of one classification.
type Result struct {
	Label        string        `json:"data_type"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives"`
	Method       string        `json:"method"`
}

// Classifier labels preprocessed text.
type Classifier interface {
	Classify(text string) (Result, error)
}

// patternClassifier is implemented by classifiers that use column-name
// patterns in addition to the text.
type patternClassifier interface {
	ClassifyPatterns(text string, p Patterns) (Result, error)
}

// New returns the model classifier when modelPath loads, the keyword
// classifier otherwise. The choice is made once; callers never see which.
func New(modelPath string, logger *slog.Logger) Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if modelPath == "" {
		return NewKeyword()
	}
	m, err := LoadModel(modelPath)
	if err != nil {
		logger.Warn("classifier model unavailable, using keyword tables", "path", modelPath, "error", err)
		return NewKeyword()
	}
	logger.Debug("classifier model loaded", "path", modelPath, "labels", len(m.Labels))
	return m
}

// Holder is a Classifier whose implementation can be swapped while in use,
// e.g. when the model file changes on disk.
type Holder struct {
	cur atomic.Pointer[Classifier]
}

// NewHolder wraps c.
func NewHolder(c Classifier) *Holder {
	h := &Holder{}
	h.Store(c)
	return h
}

// Store replaces the active classifier.
func (h *Holder) Store(c Classifier) { h.cur.Store(&c) }

// Load returns the active classifier.
func (h *Holder) Load() Classifier { return *h.cur.Load() }

// Classify delegates to the active classifier.
func (h *Holder) Classify(text string) (Result, error) { return h.Load().Classify(text) }

// ClassifyPatterns delegates to the active classifier, dropping the patterns
// when it does not use them.
func (h *Holder) ClassifyPatterns(text string, p Patterns) (Result, error) {
	c := h.Load()
	if pc, ok := c.(patternClassifier); ok {
		return pc.ClassifyPatterns(text, p)
	}
	return c.Classify(text)
}

var (
	nonWordRe = regexp.MustCompile(`[^a-z0-9, _\-]+`)
	spaceRe   = regexp.MustCompile(`\s+`)
	commaRe   = regexp.MustCompile(`,\s*`)
)

// Preprocess lower-cases text, replaces everything but letters, digits,
// commas, spaces, underscores and dashes with spaces, and collapses runs of
// whitespace.
func Preprocess(text string) string {
	text = strings.TrimSpace(strings.ToLower(text))
	text = nonWordRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	text = commaRe.ReplaceAllString(text, ", ")
	return strings.TrimSpace(text)
}

// Patterns flags recognizable column-name families.
type Patterns struct {
	HasIDs     bool `json:"has_ids"`
	HasDates   bool `json:"has_dates"`
	HasAmounts bool `json:"has_amounts"`
	HasNames   bool `json:"has_names"`
	HasStatus  bool `json:"has_status"`
}

var (
	idRe     = regexp.MustCompile(`\b(id|_id|num|no|number|code)\b`)
	dateRe   = regexp.MustCompile(`\b(date|time|day|month|year)\b`)
	amountRe = regexp.MustCompile(`\b(amount|price|cost|value|total|sum)\b`)
	nameRe   = regexp.MustCompile(`\b(name|title|description|note|remark)\b`)
	statusRe = regexp.MustCompile(`\b(status|state|flag|active|completed)\b`)
)

// ColumnPatterns inspects header names as whole words; "order_id" does not
// count as an id column while "order id" does.
func ColumnPatterns(headers []string) Patterns {
	var p Patterns
	for _, h := range headers {
		h = strings.ToLower(h)
		p.HasIDs = p.HasIDs || idRe.MatchString(h)
		p.HasDates = p.HasDates || dateRe.MatchString(h)
		p.HasAmounts = p.HasAmounts || amountRe.MatchString(h)
		p.HasNames = p.HasNames || nameRe.MatchString(h)
		p.HasStatus = p.HasStatus || statusRe.MatchString(h)
	}
	return p
}
