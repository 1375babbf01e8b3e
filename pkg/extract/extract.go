// Package extract turns input documents into the plain text consumed by the label engine.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrExtractFailed     = errors.New("text extraction failed")
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// Extractor produces document text from a file or an in-memory document.
type Extractor interface {
	ExtractFile(path string) (string, error)
	ExtractReader(r io.ReaderAt, size int64) (string, error)
}

// ForPath picks an extractor by file extension.
func ForPath(path string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDFExtractor(), nil
	case ".txt", ".text":
		return TextExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Supported reports whether ForPath accepts path.
func Supported(path string) bool {
	_, err := ForPath(path)
	return err == nil
}

// Sniff picks an extractor from the leading bytes of an uploaded document.
func Sniff(data []byte) Extractor {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\r\n\t "), []byte("%PDF-")) {
		return NewPDFExtractor()
	}
	return TextExtractor{}
}

// Bytes extracts text from an in-memory document of unknown type.
func Bytes(data []byte) (string, error) {
	return Sniff(data).ExtractReader(bytes.NewReader(data), int64(len(data)))
}

// TextExtractor passes through documents that are already text.
type TextExtractor struct{}

func (TextExtractor) ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	return normalizeNewlines(string(data)), nil
}

func (TextExtractor) ExtractReader(r io.ReaderAt, size int64) (string, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	return normalizeNewlines(string(data)), nil
}

// normalizeNewlines converts CRLF and CR line endings so line-anchored patterns match.
func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
}
