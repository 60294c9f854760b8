// Package ocr implements local text acquisition: digital PDF text layers via
// poppler and rendered-page / image recognition via Tesseract. External tools
// run through the Runner interface so tests can stub them.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/comunalve/factura-engine/constants"
	"github.com/comunalve/factura-engine/internal/common"
	"github.com/comunalve/factura-engine/internal/extract"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "spa" (the domain is Spanish-language invoices)
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	// MinTextLen is the minimal-content threshold for the digital text layer.
	// Shorter output means the PDF is almost certainly a scan; the extractor
	// falls back to rasterize + OCR instead of returning the sparse text.
	MinTextLen int // default 50

	HeicConverter string // "heif-convert" | "magick" | "sips"
	EnhanceImages bool   // pre-OCR contrast/sharpen pass on photos
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "spa"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 50
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on the declared media type, falling back to
// the filename extension for callers that do not declare one.
func (e *Extractor) Extract(ctx context.Context, doc extract.RawDocument) (extract.TextExtractionResult, error) {
	start := time.Now()

	format := constants.MapMediaType(doc.MediaType)
	if format == "" {
		format = constants.MapExtToFormat(filepath.Ext(doc.Filename))
	}
	e.logger.Debug("starting local extraction", "file", doc.Filename, "media_type", doc.MediaType, "format", format)

	path, cleanup, err := e.stage(doc, format)
	if err != nil {
		return extract.TextExtractionResult{Format: format}, err
	}
	defer cleanup()

	switch format {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path, filepath.Ext(doc.Filename))
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported media type", "media_type", doc.MediaType, "file", doc.Filename)
		return extract.TextExtractionResult{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, doc.MediaType)
	}
}

// stage writes the document bytes to a temp file for the external tools.
func (e *Extractor) stage(doc extract.RawDocument, format string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "fe-doc-*")
	if err != nil {
		return "", func() {}, fmt.Errorf("stage document: %w", err)
	}
	cleanup := func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rerr)
		}
	}

	ext := constants.NormalizeExt(filepath.Ext(doc.Filename))
	if ext == "" {
		if format == constants.PDF {
			ext = "pdf"
		} else {
			ext = "png"
		}
	}
	path := filepath.Join(tmpDir, "doc."+ext)
	if err := os.WriteFile(path, doc.Content, 0o600); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("stage document: %w", err)
	}
	return path, cleanup, nil
}
