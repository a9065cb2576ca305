package parser_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/smartdoc/internal/parser"
)

func TestExtractFileTXT(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("hello world\r\nthis is txt\n\n\n\nend"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := parser.ExtractFile(p)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(doc.Text, "hello") || strings.Contains(doc.Text, "\n\n\n") {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
	if doc.Chars == 0 || doc.Placeholder {
		t.Fatalf("expected real extraction, got %+v", doc)
	}
}

func TestExtractMarkdown(t *testing.T) {
	doc, err := parser.Extract("notes.md", []byte("# Title\n\nBody here\n"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(doc.Text, "# Tit") || doc.Format != "md" {
		t.Fatalf("unexpected doc: %+v", doc)
	}
}

func TestExtractDOCXParagraphs(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	xml := `<w:document><w:body><w:p><w:r><w:t>Revenue &amp; cost</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	doc, err := parser.Extract("report.docx", buf.Bytes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if doc.Text != "Revenue & cost\n\nSecond" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestExtractPDFDegrades(t *testing.T) {
	doc, err := parser.Extract("scan.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("expected degrade, got %v", err)
	}
	if !doc.Placeholder || doc.Chars != 0 || doc.Text == "" {
		t.Fatalf("expected placeholder doc, got %+v", doc)
	}
}

func TestExtractUnsupported(t *testing.T) {
	if _, err := parser.Extract("image.png", nil); err != parser.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if parser.Supported("image.png") || !parser.Supported("a.DOCX") {
		t.Fatalf("Supported mismatch")
	}
}

func TestExcerptTruncates(t *testing.T) {
	got := parser.Excerpt(strings.Repeat("word ", 500), 20)
	if len([]rune(got)) != 21 {
		t.Fatalf("excerpt length %d", len([]rune(got)))
	}
}
