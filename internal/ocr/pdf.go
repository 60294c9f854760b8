package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/comunalve/factura-engine/constants"
	"github.com/comunalve/factura-engine/internal/common"
	"github.com/comunalve/factura-engine/internal/extract"
)

// extractPDF tries the digital text layer first. When the layer is sparse
// (scanned PDF) it discards that text and re-runs through the OCR path.
func (e *Extractor) extractPDF(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		e.logger.Error("pdf text layer extraction failed", "path", path, "error", err)
		return extract.TextExtractionResult{Format: constants.PDF, Warnings: warns},
			fmt.Errorf("pdf text extraction: %s", common.Diagnostic(err))
	}

	if len(strings.TrimSpace(text)) >= e.cfg.MinTextLen {
		return extract.TextExtractionResult{
			Text:     text,
			Pages:    pages,
			Format:   constants.PDF,
			Method:   "pdf-text",
			Language: e.cfg.TesseractLang,
			Warnings: warns,
		}, nil
	}

	e.logger.Info("pdf text layer sparse, falling back to rendered-page ocr",
		"path", path, "text_len", len(strings.TrimSpace(text)), "threshold", e.cfg.MinTextLen)

	text, pages, ocrWarns, err := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		e.logger.Error("pdf ocr fallback failed", "path", path, "error", err)
		return extract.TextExtractionResult{Format: constants.PDF, Warnings: warns},
			fmt.Errorf("pdf ocr fallback: %s", common.Diagnostic(err))
	}
	return extract.TextExtractionResult{
		Text:     Normalize(text),
		Pages:    pages,
		Format:   constants.PDF,
		Method:   "pdf-ocr",
		Language: e.cfg.TesseractLang,
		Warnings: warns,
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "fe-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rerr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, common.Diagnostic(err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	pages = len(matches)
	return b.String(), pages, warns, nil
}
