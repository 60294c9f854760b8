package extract

import (
	"context"
	"time"
)

// RawDocument is the engine's input: an uploaded file the caller already
// accepted. The engine branches on the declared media type but does not
// validate it beyond that.
type RawDocument struct {
	Content   []byte
	MediaType string // "application/pdf" or "image/*"
	Filename  string
}

// TextExtractionResult is the outcome of one acquisition run.
type TextExtractionResult struct {
	Text     string
	Pages    int
	Format   string // constants.PDF | constants.IMAGE
	Method   string // "pdf-text" | "pdf-ocr" | "image-ocr" | "remote-ocr"
	Language string
	Duration time.Duration
	Warnings []string
}

// TextExtractor turns a document into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, doc RawDocument) (TextExtractionResult, error)
}

// Strategy is one ordered acquisition attempt. The orchestrator tries
// strategies in sequence and falls through on any failure, so adding another
// recognition backend is a pure wiring change.
type Strategy interface {
	Name() string
	AcquireText(ctx context.Context, doc RawDocument) (string, error)
}
