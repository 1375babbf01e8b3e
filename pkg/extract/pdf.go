package extract

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"picksheet/pkg/logger"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// DefaultRowTolerance is the vertical distance, in points, within which glyphs share a line.
const DefaultRowTolerance = 2.0

// PDFExtractor rebuilds the text lines of each page from glyph positions. Pages are
// joined with "\n"; null pages are skipped.
type PDFExtractor struct {
	RowTolerance float64
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{RowTolerance: DefaultRowTolerance}
}

func (e *PDFExtractor) ExtractFile(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	defer f.Close()
	return e.extract(r)
}

func (e *PDFExtractor) ExtractReader(ra io.ReaderAt, size int64) (string, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	return e.extract(r)
}

func (e *PDFExtractor) extract(r *pdf.Reader) (text string, err error) {
	// the pdf package panics on malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrExtractFailed, rec)
		}
	}()

	totalPage := r.NumPage()
	pages := make([]string, 0, totalPage)
	for i := 1; i <= totalPage; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, e.pageText(p))
	}

	text = strings.Join(pages, "\n")
	logger.Debug("Extracted PDF text", zap.Int("pages", totalPage), zap.Int("bytes", len(text)))
	return text, nil
}

type textRow struct {
	y     float64
	texts []pdf.Text
}

// pageText groups glyphs into rows top to bottom and orders each row left to right.
func (e *PDFExtractor) pageText(p pdf.Page) string {
	rows := groupTextsIntoRows(p.Content().Text, e.RowTolerance)

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row.texts, func(i, j int) bool { return row.texts[i].X < row.texts[j].X })
		var sb strings.Builder
		for _, t := range row.texts {
			sb.WriteString(t.S)
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(lines, "\n")
}

func groupTextsIntoRows(texts []pdf.Text, tolerance float64) []*textRow {
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}

	var rows []*textRow
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		placed := false
		for _, row := range rows {
			if math.Abs(row.y-t.Y) < tolerance {
				row.texts = append(row.texts, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, &textRow{y: t.Y, texts: []pdf.Text{t}})
		}
	}

	// PDF y grows upwards
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	return rows
}
