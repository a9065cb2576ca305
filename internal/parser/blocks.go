package parser

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens sizes text at four runes per token. Non-empty text is at
// least one token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return max(n/4, 1)
}

// SplitBlocks groups paragraphs into blocks of up to maxTokens estimated
// tokens, repeating up to overlap tokens of trailing paragraphs at the start
// of the next block. A single oversized paragraph becomes its own block.
func SplitBlocks(text string, maxTokens, overlap int) []string {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if overlap < 0 {
		overlap = 0
	}
	var blocks, window []string
	cur := 0
	for _, p := range paragraphs(text) {
		t := EstimateTokens(p)
		if cur+t > maxTokens && len(window) > 0 {
			blocks = append(blocks, strings.Join(window, "\n\n"))
			if overlap > 0 {
				window, cur = tailWithin(window, overlap)
			} else {
				window, cur = window[:0], 0
			}
		}
		window = append(window, p)
		cur += t
	}
	if len(window) > 0 {
		blocks = append(blocks, strings.Join(window, "\n\n"))
	}
	return blocks
}

func paragraphs(s string) []string {
	var out []string
	for _, r := range strings.Split(s, "\n\n") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// tailWithin returns the longest paragraph suffix within budget tokens,
// always keeping at least the last paragraph.
func tailWithin(paras []string, budget int) ([]string, int) {
	start, tokens := len(paras), 0
	for i := len(paras) - 1; i >= 0; i-- {
		t := EstimateTokens(paras[i])
		if tokens+t > budget && start < len(paras) {
			break
		}
		start, tokens = i, tokens+t
	}
	return append([]string(nil), paras[start:]...), tokens
}
