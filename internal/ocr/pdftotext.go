package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"solarops/internal/domain"
	"solarops/internal/port"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractFile runs pdftotext -layout on the given PDF and returns stdout.
func (p *PdfToText) ExtractFile(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}
	return stdout.String(), nil
}

// Local reads objects from storage; text files pass through, PDFs go
// through pdftotext. Scanned images need the textract provider.
type Local struct {
	store  port.ObjectStorage
	bucket string
	pdf    *PdfToText
}

// NewLocal creates a Local text source.
func NewLocal(store port.ObjectStorage, bucket string, pdf *PdfToText) *Local {
	return &Local{store: store, bucket: bucket, pdf: pdf}
}

func (l *Local) ExtractText(ctx context.Context, key string) (string, error) {
	ft, ok := domain.FileTypeFromName(key)
	if !ok || (ft != domain.FileTypeTXT && ft != domain.FileTypePDF) {
		return "", eris.Wrapf(domain.ErrUnsupportedFileType, "ocr: local provider cannot read %s", key)
	}

	data, err := l.store.Download(ctx, l.bucket, key)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: download %s", key)
	}
	if ft == domain.FileTypeTXT {
		return string(data), nil
	}

	dir, err := os.MkdirTemp("", "solarops-ocr-*")
	if err != nil {
		return "", eris.Wrap(err, "ocr: temp dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, strings.ReplaceAll(filepath.Base(key), string(os.PathSeparator), "_"))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", eris.Wrap(err, "ocr: write temp pdf")
	}
	return l.pdf.ExtractFile(ctx, path)
}
