package report

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"picksheet/pkg/labels"
	"picksheet/pkg/logger"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"
)

const (
	pageMargin  = 15.0
	rowHeight   = 7.0
	cellPadding = 1.0
	fontFamily  = "report"
)

var (
	manifestWidths  = []float64{90, 90}
	pickSheetWidths = []float64{66, 40, 28, 28, 18}
)

// PDFRenderer renders an A4 document: the pickup manifest on page one and the pick
// sheet on a new page.
type PDFRenderer struct {
	fonts    *FontManager
	labels   Labels
	fontSize float64
	compress bool
}

// NewPDFRenderer creates a PDF renderer. A zero fontSize means DefaultFontSize.
func NewPDFRenderer(fonts *FontManager, l Labels, fontSize float64) *PDFRenderer {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	return &PDFRenderer{fonts: fonts, labels: l.WithDefaults(), fontSize: fontSize, compress: true}
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func (r *PDFRenderer) Extension() string { return ".pdf" }

// Render writes the PDF to w.
func (r *PDFRenderer) Render(w io.Writer, res *labels.Result) error {
	if res == nil {
		return ErrNoResult
	}
	pdf, err := r.build(res)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return nil
}

func (r *PDFRenderer) build(res *labels.Result) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(r.labels.PickSheetTitle, true)
	pdf.SetCreator("picksheet", true)

	w := &pdfWriter{pdf: pdf, size: r.fontSize}
	w.family, w.tr = r.setupFont(pdf)

	r.manifestPage(w, res)
	r.pickSheetPage(w, res)

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, pdf.Error())
	}
	logger.Debug("Rendered PDF report",
		zap.Int("pages", pdf.PageNo()),
		zap.Int("records", len(res.Records)),
		zap.Int("products", len(res.Counts)))
	return pdf, nil
}

// setupFont embeds the resolved TTF, or falls back to core Helvetica with cp1252 translation.
func (r *PDFRenderer) setupFont(pdf *fpdf.Fpdf) (string, func(string) string) {
	if path := r.fonts.TTFPath(); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			pdf.AddUTF8FontFromBytes(fontFamily, "", data)
			pdf.AddUTF8FontFromBytes(fontFamily, "B", data)
			if !pdf.Err() {
				return fontFamily, func(s string) string { return s }
			}
			err = pdf.Error()
			pdf.ClearError()
		}
		logger.Warn("Failed to embed font, using Helvetica", zap.String("path", path), zap.Error(err))
	}
	return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
}

func (r *PDFRenderer) manifestPage(w *pdfWriter, res *labels.Result) {
	w.pdf.AddPage()
	w.heading(r.labels.PickupTitle)
	w.line(r.labels.parcels(len(res.Records)), 2)
	w.pdf.Ln(4)

	rows := make([][]string, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, []string{rec.OrderNumber, rec.TrackingNumber})
	}
	w.table([]string{r.labels.OrderHeader, r.labels.TrackingHeader}, manifestWidths, rows, nil)

	w.pdf.Ln(16)
	w.pdf.CellFormat(manifestWidths[0], rowHeight, "", "B", 1, "L", false, 0, "")
	w.line(r.labels.signature(carrier(res)), 0)
}

func (r *PDFRenderer) pickSheetPage(w *pdfWriter, res *labels.Result) {
	w.pdf.AddPage()
	w.heading(r.labels.PickSheetTitle)
	w.pdf.Ln(4)

	rows := make([][]string, 0, len(res.Counts))
	for _, c := range res.Counts {
		rows = append(rows, pickRow(c))
	}
	w.table(r.labels.pickHeaders(), pickSheetWidths, rows, []string{"L", "L", "L", "L", "R"})
}

// pdfWriter bundles the document with its font family and text translator.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	size   float64
}

func (w *pdfWriter) heading(text string) {
	w.pdf.SetFont(w.family, "B", w.size+5)
	w.pdf.CellFormat(0, 10, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) line(text string, grow float64) {
	w.pdf.SetFont(w.family, "", w.size+grow)
	w.pdf.CellFormat(0, rowHeight+1, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) table(headers []string, widths []float64, rows [][]string, align []string) {
	w.pdf.SetFont(w.family, "B", w.size)
	w.pdf.SetFillColor(229, 231, 235)
	for i, h := range headers {
		w.pdf.CellFormat(widths[i], rowHeight, w.fit(h, widths[i]), "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(-1)

	w.pdf.SetFont(w.family, "", w.size)
	for _, row := range rows {
		for i, cell := range row {
			a := "L"
			if align != nil {
				a = align[i]
			}
			w.pdf.CellFormat(widths[i], rowHeight, w.fit(cell, widths[i]), "1", 0, a, false, 0, "")
		}
		w.pdf.Ln(-1)
	}
}

// fit translates s and shortens it with "..." until it fits a cell of the given width.
func (w *pdfWriter) fit(s string, width float64) string {
	s = w.tr(s)
	limit := width - 2*cellPadding
	if w.pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && w.pdf.GetStringWidth(s+"...") > limit {
		_, n := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-n]
	}
	return s + "..."
}
