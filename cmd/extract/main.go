// Command extract runs the extraction engine against a single file and prints
// the parsed fields as JSON. It never touches a store, so the duplicate guard
// is disabled; useful for tuning the heuristics against sample invoices.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/comunalve/factura-engine/internal/common"
	"github.com/comunalve/factura-engine/internal/engine"
	"github.com/comunalve/factura-engine/internal/extract"
	"github.com/comunalve/factura-engine/internal/ocr"
	"github.com/comunalve/factura-engine/internal/remoteocr"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extract <invoice.pdf|invoice.jpg>")
		os.Exit(2)
	}
	path := os.Args[1]

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MinTextLen:    cfg.OCR.MinTextLen,
		HeicConverter: cfg.OCR.HeicConverter,
		EnhanceImages: cfg.OCR.EnhanceImages,
	}, logger)

	var strategies []extract.Strategy
	if cfg.RemoteOCR.APIKey != "" {
		client, err := remoteocr.NewClient(remoteocr.Config{
			Endpoint: cfg.RemoteOCR.Endpoint,
			APIKey:   cfg.RemoteOCR.APIKey,
			Language: cfg.RemoteOCR.Language,
		}, logger)
		if err != nil {
			logger.Error("remote ocr client", "error", err)
			os.Exit(1)
		}
		strategies = append(strategies, engine.NewRemoteStrategy(client))
	}
	strategies = append(strategies, engine.NewLocalStrategy(extractor))

	eng := engine.New(logger, nil, strategies...)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	fields, err := eng.Process(ctx, extract.RawDocument{
		Content:  content,
		Filename: filepath.Base(path),
	})
	dur := time.Since(start)

	if err != nil {
		logger.Error("extraction failed", "file", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("extraction OK", "file", path, "duration_ms", dur.Milliseconds())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(fields)
}
