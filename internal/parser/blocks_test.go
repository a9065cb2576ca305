package parser

import (
	"strings"
	"testing"
)

func makePara(letter string, tokens int) string {
	return strings.Repeat(letter, tokens*4)
}

func TestSplitBlocks_NoOverlap(t *testing.T) {
	p1, p2, p3 := makePara("a", 10), makePara("b", 10), makePara("c", 10)
	blocks := SplitBlocks(p1+"\n\n"+p2+"\n\n"+p3, 20, 0)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if !strings.Contains(blocks[0], p1) || !strings.Contains(blocks[0], p2) || strings.Contains(blocks[0], p3) {
		t.Fatalf("block 0 has wrong paragraphs: %q", blocks[0])
	}
	if blocks[1] != p3 {
		t.Fatalf("block 1 should be p3")
	}
}

func TestSplitBlocks_WithOverlap(t *testing.T) {
	p1, p2, p3 := makePara("a", 10), makePara("b", 10), makePara("c", 10)
	blocks := SplitBlocks(p1+"\n\n"+p2+"\n\n"+p3, 20, 10)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[1], p2) || !strings.Contains(blocks[1], p3) {
		t.Fatalf("block 1 should start with overlapping p2: %q", blocks[1])
	}
}

func TestSplitBlocks_Empty(t *testing.T) {
	if got := SplitBlocks("  \n\n ", 100, 0); len(got) != 0 {
		t.Fatalf("expected no blocks, got %v", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"hello world", 2},
		{"héllo wörld", 2},
		{strings.Repeat("a", 4000), 1000},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.in); got != c.want {
			t.Errorf("EstimateTokens(%q): got %d, want %d", c.in, got, c.want)
		}
	}
}
