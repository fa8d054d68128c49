package vision

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"plate-service/internal/plate"
)

const plateWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789.:-<> "

// Tesseract reads plate crops with a local Tesseract install.
type Tesseract struct {
	language string
}

func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}
}

func (t *Tesseract) ReadText(ctx context.Context, img image.Image) ([]plate.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Plates are small; upscale and flatten before recognition.
	prepared := imaging.Grayscale(img)
	if w, _ := size(prepared); w > 0 && w < 400 {
		prepared = imaging.Resize(prepared, 400, 0, imaging.Lanczos)
	}
	data, err := encode(prepared, imaging.PNG)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetWhitelist(plateWhitelist); err != nil {
		return nil, fmt.Errorf("tesseract whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("tesseract page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("tesseract image: %w", err)
	}

	lines, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognize: %w", err)
	}

	fragments := make([]plate.Fragment, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line.Word)
		if text == "" {
			continue
		}
		fragments = append(fragments, plate.Fragment{Text: text, Confidence: line.Confidence / 100})
	}
	return fragments, nil
}
