//go:build !tesseract

package tesseract

import (
	"context"

	"github.com/Lllllllleong/documenttranslator/internal/models"
)

// Engine is a placeholder that always fails.
type Engine struct {
	languages []string
}

// NewEngine returns a stub engine.
func NewEngine(languages ...string) *Engine {
	return &Engine{languages: languages}
}

// Available reports whether the binary was built with tesseract support.
func Available() bool { return false }

func (e *Engine) DetectText(ctx context.Context, data []byte, mimeType string) ([]models.TextBlock, error) {
	return nil, ErrUnavailable
}
