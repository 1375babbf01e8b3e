package report

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"picksheet/pkg/logger"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontManager resolves one TrueType font for both renderers and caches faces per size.
// When nothing usable is found the PDF falls back to core Helvetica and the preview to
// basicfont.
type FontManager struct {
	candidates []string

	once     sync.Once
	path     string
	font     *truetype.Font
	cacheMu  sync.RWMutex
	faces    map[float64]font.Face
	fallback font.Face
}

// NewFontManager creates a font manager that tries configured first, then the system
// font locations for the current OS.
func NewFontManager(configured string) *FontManager {
	candidates := make([]string, 0, 8)
	if configured != "" {
		candidates = append(candidates, configured)
	}
	candidates = append(candidates, systemFontPaths()...)
	return newFontManager(candidates)
}

func newFontManager(candidates []string) *FontManager {
	return &FontManager{
		candidates: candidates,
		faces:      make(map[float64]font.Face),
		fallback:   basicfont.Face7x13,
	}
}

func (fm *FontManager) resolve() {
	fm.once.Do(func() {
		for _, path := range fm.candidates {
			f, err := loadFontFromPath(path)
			if err != nil {
				logger.Debug("Font candidate rejected", zap.String("path", path), zap.Error(err))
				continue
			}
			fm.path = path
			fm.font = f
			logger.Info("Loaded report font", zap.String("path", path))
			return
		}
		logger.Warn("No TrueType font found, using built-in fallback fonts")
	})
}

// Path returns the resolved font file, or "" when the fallback is in use.
func (fm *FontManager) Path() string {
	fm.resolve()
	return fm.path
}

// TTFPath returns the resolved font only if it is a single-font .ttf file, which is
// what the PDF writer can embed.
func (fm *FontManager) TTFPath() string {
	path := fm.Path()
	if strings.EqualFold(filepath.Ext(path), ".ttf") {
		return path
	}
	return ""
}

// Face returns a face of the given point size for raster output.
func (fm *FontManager) Face(size float64) font.Face {
	fm.resolve()
	if fm.font == nil {
		return fm.fallback
	}

	fm.cacheMu.RLock()
	face, ok := fm.faces[size]
	fm.cacheMu.RUnlock()
	if ok {
		return face
	}

	face = truetype.NewFace(fm.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})

	fm.cacheMu.Lock()
	fm.faces[size] = face
	fm.cacheMu.Unlock()
	return face
}

// GetCacheStats returns cache statistics
func (fm *FontManager) GetCacheStats() map[string]interface{} {
	fm.resolve()
	fm.cacheMu.RLock()
	defer fm.cacheMu.RUnlock()

	return map[string]interface{}{
		"font_path":    fm.path,
		"cached_faces": len(fm.faces),
		"fallback":     fm.font == nil,
	}
}

// systemFontPaths returns Latin sans-serif fonts commonly present on each OS.
func systemFontPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Library/Fonts/Arial.ttf",
			"/System/Library/Fonts/Supplemental/Arial.ttf",
			"/System/Library/Fonts/Helvetica.ttc",
		}
	case "linux":
		return []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		}
	case "windows":
		winFonts := "C:\\Windows\\Fonts"
		return []string{
			filepath.Join(winFonts, "arial.ttf"),
			filepath.Join(winFonts, "calibri.ttf"),
			filepath.Join(winFonts, "segoeui.ttf"),
		}
	}
	return nil
}

// loadFontFromPath loads and parses a TTF or TTC file.
func loadFontFromPath(fontPath string) (*truetype.Font, error) {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return f, nil
}
