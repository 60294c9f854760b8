package ocr

import (
	"context"
	"fmt"

	"github.com/comunalve/factura-engine/constants"
	"github.com/comunalve/factura-engine/internal/common"
	"github.com/comunalve/factura-engine/internal/extract"
)

func (e *Extractor) extractImage(ctx context.Context, path, ext string) (extract.TextExtractionResult, error) {
	var warns []string

	if constants.IsHEICExt(ext) {
		out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path)
		warns = append(warns, w...)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			e.logger.Error("heic conversion failed", "path", path, "error", err)
			return extract.TextExtractionResult{Format: constants.IMAGE, Warnings: warns},
				fmt.Errorf("heic conversion: %s", common.Diagnostic(err))
		}
		path = out
	}

	if e.cfg.EnhanceImages {
		// Enhancement failure is not fatal; OCR still runs on the original.
		if enhanced, err := enhanceForOCR(path); err != nil {
			e.logger.Warn("image enhancement skipped", "path", path, "error", err)
			warns = append(warns, "image enhancement skipped: "+common.Diagnostic(err))
		} else {
			path = enhanced
		}
	}

	txt, w, err := e.tesseractOCR(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		e.logger.Error("image ocr failed", "path", path, "error", err)
		return extract.TextExtractionResult{Format: constants.IMAGE, Warnings: warns},
			fmt.Errorf("image ocr: %s", common.Diagnostic(err))
	}

	return extract.TextExtractionResult{
		Text:     Normalize(txt),
		Pages:    1,
		Format:   constants.IMAGE,
		Method:   "image-ocr",
		Language: e.cfg.TesseractLang,
		Warnings: warns,
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}
