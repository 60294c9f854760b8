package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/comunalve/factura-engine/internal/common"
	"github.com/comunalve/factura-engine/internal/engine"
	"github.com/comunalve/factura-engine/internal/export"
	"github.com/comunalve/factura-engine/internal/extract"
	"github.com/comunalve/factura-engine/internal/ocr"
	"github.com/comunalve/factura-engine/internal/remoteocr"
	"github.com/comunalve/factura-engine/internal/repository"
	"github.com/comunalve/factura-engine/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close database", "error", cerr)
		}
	}()

	repo := repository.NewInvoiceRepository(db, logger)

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

	// Remote recognition runs first when a key is configured; the local
	// toolchain remains the fallback either way.
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
	} else {
		logger.Info("remote recognition disabled (REMOTE_OCR_API_KEY not set)")
	}
	strategies = append(strategies, engine.NewLocalStrategy(extractor))

	eng := engine.New(logger, repo, strategies...)
	exporter := export.NewService(repo, logger)
	handler := server.NewInvoiceHandler(eng, repo, exporter, cfg.Server.MaxUploadBytes, logger)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}
