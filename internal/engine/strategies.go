package engine

import (
	"context"

	"github.com/comunalve/factura-engine/internal/extract"
	"github.com/comunalve/factura-engine/internal/remoteocr"
)

// localStrategy adapts any TextExtractor (in practice the ocr.Extractor) to
// the strategy interface.
type localStrategy struct {
	extractor extract.TextExtractor
}

func NewLocalStrategy(extractor extract.TextExtractor) extract.Strategy {
	return &localStrategy{extractor: extractor}
}

func (s *localStrategy) Name() string { return "local" }

func (s *localStrategy) AcquireText(ctx context.Context, doc extract.RawDocument) (string, error) {
	res, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// remoteStrategy adapts the remote recognition client.
type remoteStrategy struct {
	client *remoteocr.Client
}

func NewRemoteStrategy(client *remoteocr.Client) extract.Strategy {
	return &remoteStrategy{client: client}
}

func (s *remoteStrategy) Name() string { return "remote" }

func (s *remoteStrategy) AcquireText(ctx context.Context, doc extract.RawDocument) (string, error) {
	return s.client.Recognize(ctx, doc.Content, doc.Filename)
}
