// Package ocr acquires raw text for stored paperwork.
package ocr

import (
	"github.com/rotisserie/eris"

	"solarops/internal/config"
	"solarops/internal/port"
)

// NewTextSource creates a port.TextSource based on config. Objects are read
// from bucket in store.
func NewTextSource(cfg config.OCRConfig, store port.ObjectStorage, bucket string) (port.TextSource, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(store, bucket, NewPdfToText(cfg.PdfToTextPath)), nil
	case "textract":
		return NewTextract(cfg.Region, bucket)
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
