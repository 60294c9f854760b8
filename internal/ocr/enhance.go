package ocr

import (
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// enhanceForOCR applies a contrast/sharpen pass that noticeably improves
// Tesseract output on phone photos of thermal-paper invoices. The result is
// written next to the staged original so it shares the same cleanup.
func enhanceForOCR(path string) (string, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	out := filepath.Join(filepath.Dir(path), "enhanced.png")
	if err := imaging.Save(img, out); err != nil {
		return "", fmt.Errorf("save enhanced image: %w", err)
	}
	return out, nil
}
