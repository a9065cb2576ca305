package classify

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// LabelWeights is one class of a linear bag-of-words model.
type LabelWeights struct {
	Name    string             `yaml:"name"`
	Bias    float64            `yaml:"bias"`
	Weights map[string]float64 `yaml:"weights"`
}

// ModelClassifier is a multinomial logistic model over token counts,
// trained offline and shipped as YAML:
//
//	labels:
//	  - name: sales
//	    bias: -0.3
//	    weights: {revenue: 1.8, invoice: 1.1}
type ModelClassifier struct {
	Labels []LabelWeights `yaml:"labels"`
}

// LoadModel reads a model file.
func LoadModel(path string) (*ModelClassifier, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseModel(b)
}

// ParseModel decodes a YAML model.
func ParseModel(b []byte) (*ModelClassifier, error) {
	var m ModelClassifier
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(m.Labels) == 0 {
		return nil, fmt.Errorf("decode model: no labels")
	}
	seen := map[string]bool{}
	for _, l := range m.Labels {
		if l.Name == "" {
			return nil, fmt.Errorf("decode model: label without name")
		}
		if seen[l.Name] {
			return nil, fmt.Errorf("decode model: duplicate label %q", l.Name)
		}
		seen[l.Name] = true
	}
	return &m, nil
}

var tokenRe = regexp.MustCompile(`[a-z0-9_]+`)

// Classify returns the most probable label with its softmax probability.
// Runners-up with probability above 0.1 are reported, at most three.
func (m *ModelClassifier) Classify(text string) (Result, error) {
	counts := map[string]float64{}
	for _, tok := range tokenRe.FindAllString(Preprocess(text), -1) {
		counts[tok]++
	}
	logits := make([]float64, len(m.Labels))
	for i, l := range m.Labels {
		z := l.Bias
		for tok, n := range counts {
			z += l.Weights[tok] * n
		}
		logits[i] = z
	}
	probs := softmax(logits)

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	res := Result{
		Label:        m.Labels[order[0]].Name,
		Confidence:   round(probs[order[0]], 3),
		Alternatives: []Alternative{},
		Method:       MethodModel,
	}
	for _, i := range order[1:min(4, len(order))] {
		if probs[i] > 0.1 {
			res.Alternatives = append(res.Alternatives, Alternative{Label: m.Labels[i].Name, Confidence: round(probs[i], 3)})
		}
	}
	return res, nil
}

func softmax(z []float64) []float64 {
	hi := math.Inf(-1)
	for _, v := range z {
		hi = math.Max(hi, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
