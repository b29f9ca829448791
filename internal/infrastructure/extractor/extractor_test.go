package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/edurag/edurag/internal/core/domain"
)

func TestExtractPlainText(t *testing.T) {
	e := New()
	text, err := e.Extract(context.Background(), []byte("Cell biology basics.\nThe nucleus stores DNA."), domain.FileTXT, "bio.txt", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "nucleus") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractPlainTextRejectsInvalidUTF8(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0xfd}, domain.FileTXT, "bad.txt", nil)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractRejectsEmptyContent(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), []byte("   \n  "), domain.FileTXT, "blank.txt", nil)
	if !domain.IsKind(err, domain.ErrEmptyContent) {
		t.Fatalf("expected empty-content error, got %v", err)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), []byte("x"), domain.FileType("exe"), "a.exe", nil)
	if !domain.IsKind(err, domain.ErrUnsupportedType) {
		t.Fatalf("expected unsupported-type error, got %v", err)
	}
}

func TestExtractCSVSummarizesNumericColumns(t *testing.T) {
	e := New()
	csvData := []byte("subject,score\nmath,90\nphysics,75\nchemistry,82\n")
	text, err := e.Extract(context.Background(), csvData, domain.FileCSV, "grades.csv", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{"Column Names: subject, score", "Data Summary:", "score: count=3 min=75 max=90", "Sample Data:", "subject=math, score=90"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}

func TestExtractCSVSampleLimitedToTenRows(t *testing.T) {
	e := New()
	var b strings.Builder
	b.WriteString("name\n")
	for i := 0; i < 30; i++ {
		b.WriteString("row\n")
	}
	text, err := e.Extract(context.Background(), []byte(b.String()), domain.FileCSV, "long.csv", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := strings.Count(text, "name=row"); got != 10 {
		t.Fatalf("expected 10 sample rows, got %d", got)
	}
	if !strings.Contains(text, "Rows: 30") {
		t.Fatalf("row count missing in:\n%s", text)
	}
}

func TestExtractDOCX(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>The French Revolution began in 1789.</w:t></w:r></w:p>
    <w:p><w:r><w:t>It reshaped European politics.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	e := New()
	text, err := e.Extract(context.Background(), buf.Bytes(), domain.FileDOCX, "history.docx", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "French Revolution") || !strings.Contains(text, "European politics") {
		t.Fatalf("paragraph text missing: %q", text)
	}
	if !strings.Contains(text, "1789.\n") {
		t.Fatalf("expected newline between paragraphs: %q", text)
	}
}

func TestExtractDOCXCorruptArchive(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), []byte("not a zip"), domain.FileDOCX, "broken.docx", nil)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractReportsCompletion(t *testing.T) {
	e := New()
	var last float64
	_, err := e.Extract(context.Background(), []byte("some text"), domain.FileTXT, "a.txt", func(f float64) { last = f })
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if last != 1 {
		t.Fatalf("expected final report of 1, got %v", last)
	}
}
