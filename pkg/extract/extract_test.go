package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"picksheet/pkg/labels"

	"codeberg.org/go-pdf/fpdf"
)

var labelLines = []string{
	"Sender 1661 Inc",
	"Columbusstraat 25",
	"Consignment 05212057104424",
	"Ref1: Order 338109311DPDwww.dpd.nl",
	"Packages 1 of 1",
	"Weight 13.05 Kg",
	"Service NL-DPD-0521",
	"1",
	"338109311",
	"Dunk Low 'UCLA'",
	"9 US M | DD1391 402 | New",
	"Ship by Mon 08/15",
	"MCTSCHECKER",
}

// writeLabelPDF renders each page as one line per cell, the way label printers lay out text.
func writeLabelPDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 10)
	for _, lines := range pages {
		doc.AddPage()
		for _, line := range lines {
			doc.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return buf.Bytes()
}

func TestPDFExtractorLines(t *testing.T) {
	data := writeLabelPDF(t, labelLines)

	text, err := NewPDFExtractor().ExtractReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	got := strings.Split(text, "\n")
	if len(got) != len(labelLines) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(labelLines), text)
	}
	for i := range labelLines {
		if got[i] != labelLines[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], labelLines[i])
		}
	}
}

func TestPDFExtractorFeedsEngine(t *testing.T) {
	page := append([]string{}, labelLines...)
	page = append(page, labels.DefaultBoundaryMarker)
	second := append([]string{}, labelLines...)
	second[2] = "Consignment 05212057104425"
	second[8] = "338109312"

	path := filepath.Join(t.TempDir(), "labels.pdf")
	if err := os.WriteFile(path, writeLabelPDF(t, page, second), 0644); err != nil {
		t.Fatal(err)
	}

	ex, err := ForPath(path)
	if err != nil {
		t.Fatal(err)
	}
	text, err := ex.ExtractFile(path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	res, err := labels.DefaultEngine().Run(text)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %+v, skipped = %+v", res.Records, res.Skipped)
	}
	if res.Records[1].TrackingNumber != "05212057104425" || res.Records[1].OrderNumber != "338109312" {
		t.Errorf("second record = %+v", res.Records[1])
	}
	if len(res.Counts) != 1 || res.Counts[0].Count != 2 {
		t.Errorf("counts = %+v", res.Counts)
	}
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	data := []byte("%PDF-1.4\nthis is not really a pdf")
	_, err := NewPDFExtractor().ExtractReader(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrExtractFailed) {
		t.Errorf("err = %v, want ErrExtractFailed", err)
	}
}

func TestTextExtractorNormalizesNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte("a\r\nb\rc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	text, err := TextExtractor{}.ExtractFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "a\nb\nc\n" {
		t.Errorf("text = %q", text)
	}
}

func TestTextExtractorMissingFile(t *testing.T) {
	_, err := TextExtractor{}.ExtractFile(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, ErrExtractFailed) {
		t.Errorf("err = %v", err)
	}
}

func TestForPath(t *testing.T) {
	cases := map[string]bool{
		"labels.pdf": true,
		"LABELS.PDF": true,
		"labels.txt": true,
		"labels.doc": false,
		"labels":     false,
	}
	for path, ok := range cases {
		_, err := ForPath(path)
		if ok && err != nil {
			t.Errorf("%s: unexpected error %v", path, err)
		}
		if !ok && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: err = %v, want ErrUnsupportedFormat", path, err)
		}
		if Supported(path) != ok {
			t.Errorf("Supported(%s) = %v", path, !ok)
		}
	}
}

func TestSniffAndBytes(t *testing.T) {
	if _, ok := Sniff([]byte("%PDF-1.7 ...")).(*PDFExtractor); !ok {
		t.Error("PDF header must select the PDF extractor")
	}
	if _, ok := Sniff([]byte("Consignment 0521")).(TextExtractor); !ok {
		t.Error("plain text must select the text extractor")
	}

	text, err := Bytes([]byte("line one\r\nline two"))
	if err != nil || text != "line one\nline two" {
		t.Errorf("Bytes = %q, %v", text, err)
	}
}
