// Package remoteocr is the network acquisition path: an OCR.space-style
// recognition service reached over multipart HTTP. It trades offline operation
// for accuracy; the orchestrator falls back to local recognition when it fails.
package remoteocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by NewClient when no credential is configured.
// There is deliberately no embedded demo key: a shared public-quota credential
// fails unpredictably under load, which is worse than failing fast here.
var ErrMissingAPIKey = errors.New("remote ocr: api key not configured")

const defaultEndpoint = "https://api.ocr.space/parse/image"

type Config struct {
	Endpoint string // default OCR.space parse endpoint
	APIKey   string // required
	Language string // default "spa"

	HTTPClient *http.Client
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "spa"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: cfg.HTTPClient, logger: logger}, nil
}

// parseResponse mirrors the service's JSON payload.
type parseResponse struct {
	IsErroredOnProcessing bool     `json:"IsErroredOnProcessing"`
	ErrorMessage          messages `json:"ErrorMessage"`
	ParsedResults         []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
}

// messages tolerates the service returning either a string or a string array.
type messages []string

func (m *messages) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*m = []string{one}
	return nil
}

// Recognize uploads the document and returns the raw recognized text. Fixed
// options: orientation auto-detect on, upscaling on, engine 2 (the variant
// that reads receipt numbers reliably), no overlay data.
func (c *Client) Recognize(ctx context.Context, content []byte, filename string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("remote ocr: build request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("remote ocr: build request: %w", err)
	}
	fields := map[string]string{
		"apikey":            c.cfg.APIKey,
		"language":          c.cfg.Language,
		"isOverlayRequired": "false",
		"detectOrientation": "true",
		"scale":             "true",
		"OCREngine":         "2",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("remote ocr: build request: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("remote ocr: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("remote ocr: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote ocr: request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote ocr: service returned status %d", resp.StatusCode)
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("remote ocr: decode response: %w", err)
	}

	if parsed.IsErroredOnProcessing {
		msg := "unknown processing error"
		if len(parsed.ErrorMessage) > 0 && strings.TrimSpace(parsed.ErrorMessage[0]) != "" {
			msg = parsed.ErrorMessage[0]
		}
		return "", fmt.Errorf("remote ocr: %s", msg)
	}
	if len(parsed.ParsedResults) == 0 || strings.TrimSpace(parsed.ParsedResults[0].ParsedText) == "" {
		return "", errors.New("remote ocr: service returned no text")
	}

	text := parsed.ParsedResults[0].ParsedText
	c.logger.Debug("remote ocr ok",
		"file", filename,
		"bytes", len(content),
		"text_len", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
