//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text lines with a fresh gosseract client per call.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed OCR engine for the given language codes (e.g. "eng").
func NewEngine(languages ...string) *Engine {
	return &Engine{languages: languages, clientFactory: gosseract.NewClient}
}

// Available reports whether the binary was built with tesseract support.
func Available() bool { return true }

// DetectText returns one LINE block per text line tesseract finds, top to bottom.
// Tesseract only reads raster images; wrap the engine in services.PageImageOCR for PDFs.
func (e *Engine) DetectText(ctx context.Context, data []byte, mimeType string) ([]models.TextBlock, error) {
	if mimeType == "application/pdf" {
		return nil, fmt.Errorf("tesseract cannot read %s input", mimeType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}

	blocks := make([]models.TextBlock, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		blocks = append(blocks, models.TextBlock{Type: models.BlockLine, Text: text})
	}
	return blocks, nil
}
