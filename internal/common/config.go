package common

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	OCR       OCRConfig
	RemoteOCR RemoteOCRConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	AllowedOrigins []string
	MaxUploadBytes int64
}

// OCRConfig holds local recognition configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MinTextLen    int
	HeicConverter string
	EnhanceImages bool
}

// RemoteOCRConfig holds remote recognition service configuration.
// APIKey has deliberately no default: leaving it unset disables the remote
// strategy instead of silently degrading to a shared public-quota key.
type RemoteOCRConfig struct {
	Endpoint string
	APIKey   string
	Language string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:         getEnv("DB_URL", "facturas.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			AllowedOrigins: []string{getEnv("CORS_ORIGIN", "*")},
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 15<<20),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", ""),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", ""),
			Tesseract:     getEnv("TESSERACT_BIN", ""),
			TesseractLang: getEnv("TESSERACT_LANG", "spa"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MinTextLen:    getEnvAsInt("PDF_MIN_TEXT_LEN", 50),
			HeicConverter: getEnv("HEIC_CONVERTER", "magick"),
			EnhanceImages: getEnvAsBool("OCR_ENHANCE_IMAGES", true),
		},
		RemoteOCR: RemoteOCRConfig{
			Endpoint: getEnv("REMOTE_OCR_ENDPOINT", "https://api.ocr.space/parse/image"),
			APIKey:   getEnv("REMOTE_OCR_API_KEY", ""),
			Language: getEnv("REMOTE_OCR_LANGUAGE", "spa"),
		},
	}
}

// Validate checks the loaded configuration for values the daemon cannot run without.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("DB_URL is required")
	}
	if c.Server.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
