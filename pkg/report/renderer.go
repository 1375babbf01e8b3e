// Package report renders the pickup manifest and pick sheet for a parsed document.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"picksheet/pkg/labels"
)

var (
	ErrNoResult     = errors.New("no parse result to render")
	ErrRenderFailed = errors.New("report rendering failed")
)

// Renderer writes one report format.
type Renderer interface {
	Render(w io.Writer, res *labels.Result) error
	ContentType() string
	Extension() string
}

// RenderFile renders res into path, creating parent directories.
func RenderFile(r Renderer, path string, res *labels.Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return r.Render(f, res)
}

// carrier names the shipper printed on the signature line.
func carrier(res *labels.Result) string {
	if len(res.Records) > 0 {
		return res.Records[0].Shipper.String()
	}
	return labels.ShipperDPD.String()
}

func pickRow(c labels.ProductCount) []string {
	return []string{c.Product.Name, c.Product.SKU, c.Product.Size, c.Product.Condition, fmt.Sprint(c.Count)}
}
