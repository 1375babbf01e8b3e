package report

import (
	"fmt"
	"image/color"
	"io"
	"unicode/utf8"

	"picksheet/pkg/labels"

	"github.com/fogleman/gg"
)

// ColorScheme defines color scheme for the preview image
type ColorScheme struct {
	Background color.Color
	HeaderBG   color.Color
	StripeBG   color.Color
	Primary    color.Color
	Secondary  color.Color
	Border     color.Color
}

// DefaultColorScheme returns the preview palette.
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		Background: color.RGBA{255, 255, 255, 255},
		HeaderBG:   color.RGBA{229, 231, 235, 255},
		StripeBG:   color.RGBA{249, 250, 251, 255},
		Primary:    color.RGBA{17, 24, 39, 255},
		Secondary:  color.RGBA{75, 85, 99, 255},
		Border:     color.RGBA{209, 213, 219, 255},
	}
}

// column widths of the pick-sheet table as fractions of the content width
var previewColumns = []float64{0.40, 0.22, 0.14, 0.14, 0.10}

// PreviewRenderer draws the pick sheet as a PNG for quick on-screen checks.
type PreviewRenderer struct {
	fonts    *FontManager
	labels   Labels
	colors   ColorScheme
	width    int
	fontSize float64
	padding  float64
}

// NewPreviewRenderer creates a preview renderer. Zero width or fontSize use the defaults.
func NewPreviewRenderer(fonts *FontManager, l Labels, width int, fontSize float64) *PreviewRenderer {
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	return &PreviewRenderer{
		fonts:    fonts,
		labels:   l.WithDefaults(),
		colors:   DefaultColorScheme(),
		width:    width,
		fontSize: fontSize * 1.4,
		padding:  40,
	}
}

func (p *PreviewRenderer) ContentType() string { return "image/png" }

func (p *PreviewRenderer) Extension() string { return ".png" }

func (p *PreviewRenderer) rowHeight() float64 { return p.fontSize * 2.2 }

// calculateHeight sizes the canvas for a title block, header row and one row per product.
func (p *PreviewRenderer) calculateHeight(rows int) int {
	return int(p.padding*2 + p.fontSize*5 + p.rowHeight()*float64(rows+1))
}

// Render writes the PNG to w.
func (p *PreviewRenderer) Render(w io.Writer, res *labels.Result) error {
	if res == nil {
		return ErrNoResult
	}

	dc := gg.NewContext(p.width, p.calculateHeight(len(res.Counts)))
	dc.SetColor(p.colors.Background)
	dc.Clear()

	y := p.padding
	dc.SetFontFace(p.fonts.Face(p.fontSize * 1.5))
	dc.SetColor(p.colors.Primary)
	dc.DrawStringAnchored(p.labels.PickSheetTitle, p.padding, y, 0, 1)
	y += p.fontSize * 2.5

	dc.SetFontFace(p.fonts.Face(p.fontSize))
	dc.SetColor(p.colors.Secondary)
	dc.DrawStringAnchored(p.labels.parcels(labels.TotalCount(res.Counts)), p.padding, y, 0, 1)
	y += p.fontSize * 2.5

	y = p.drawRow(dc, p.labels.pickHeaders(), y, p.colors.HeaderBG)
	for i, c := range res.Counts {
		bg := p.colors.Background
		if i%2 == 1 {
			bg = p.colors.StripeBG
		}
		y = p.drawRow(dc, pickRow(c), y, bg)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return nil
}

func (p *PreviewRenderer) drawRow(dc *gg.Context, cells []string, y float64, bg color.Color) float64 {
	content := float64(p.width) - 2*p.padding
	h := p.rowHeight()

	dc.SetColor(bg)
	dc.DrawRectangle(p.padding, y, content, h)
	dc.Fill()

	dc.SetColor(p.colors.Border)
	dc.SetLineWidth(1)
	dc.DrawLine(p.padding, y+h, p.padding+content, y+h)
	dc.Stroke()

	dc.SetColor(p.colors.Primary)
	x := p.padding
	for i, cell := range cells {
		colWidth := content * previewColumns[i]
		dc.DrawStringAnchored(fitString(dc, cell, colWidth-12), x+6, y+h/2, 0, 0.35)
		x += colWidth
	}
	return y + h
}

// fitString shortens s with "..." until it fits maxWidth pixels.
func fitString(dc *gg.Context, s string, maxWidth float64) string {
	if w, _ := dc.MeasureString(s); w <= maxWidth {
		return s
	}
	for len(s) > 0 {
		_, n := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-n]
		if w, _ := dc.MeasureString(s + "..."); w <= maxWidth {
			break
		}
	}
	return s + "..."
}
