package common

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Shield the assertions from ambient environment.
	for _, key := range []string{"DB_URL", "HTTP_ADDR", "TESSERACT_LANG", "PDF_MIN_TEXT_LEN",
		"OCR_DPI", "REMOTE_OCR_API_KEY", "MAX_UPLOAD_BYTES"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.Database.DSN != "facturas.db" {
		t.Errorf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("Server.HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.OCR.TesseractLang != "spa" {
		t.Errorf("OCR.TesseractLang = %q", cfg.OCR.TesseractLang)
	}
	if cfg.OCR.MinTextLen != 50 {
		t.Errorf("OCR.MinTextLen = %d", cfg.OCR.MinTextLen)
	}
	if cfg.OCR.DPI != 300 {
		t.Errorf("OCR.DPI = %d", cfg.OCR.DPI)
	}
	if cfg.RemoteOCR.APIKey != "" {
		t.Errorf("RemoteOCR.APIKey = %q, want unset", cfg.RemoteOCR.APIKey)
	}
	if cfg.Server.MaxUploadBytes != 15<<20 {
		t.Errorf("Server.MaxUploadBytes = %d", cfg.Server.MaxUploadBytes)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/facturas")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PDF_MIN_TEXT_LEN", "120")
	t.Setenv("OCR_ENHANCE_IMAGES", "false")
	t.Setenv("DB_DIAL_TIMEOUT", "5s")

	cfg := LoadConfig()

	if cfg.Database.DSN != "postgres://u:p@localhost:5432/facturas" {
		t.Errorf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("Server.HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.OCR.MinTextLen != 120 {
		t.Errorf("OCR.MinTextLen = %d", cfg.OCR.MinTextLen)
	}
	if cfg.OCR.EnhanceImages {
		t.Error("OCR.EnhanceImages = true, want false")
	}
	if cfg.Database.DialTimeout != 5*time.Second {
		t.Errorf("Database.DialTimeout = %v", cfg.Database.DialTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.Database.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing DSN passed validation")
	}

	cfg = LoadConfig()
	cfg.Server.HTTPAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing HTTP addr passed validation")
	}
}
