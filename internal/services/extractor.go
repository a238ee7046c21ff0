package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/documenttranslator/internal/models"
)

// MaxPDFPages is the structural page count ceiling. Larger PDFs are rejected, not truncated.
const MaxPDFPages = 10

// DefaultMaxOCRBytes caps the size of any document sent to OCR.
const DefaultMaxOCRBytes = 20 << 20

// PDFReader reads the structure of a PDF held in memory.
type PDFReader interface {
	PageCount(data []byte) (int, error)
	// PageTexts returns the structural text of every page, in page order.
	PageTexts(data []byte) ([]string, error)
}

// OCRService recognizes text in document bytes.
type OCRService interface {
	DetectText(ctx context.Context, data []byte, mimeType string) ([]models.TextBlock, error)
}

// TextExtractor turns a raw document into plain text, choosing between
// structural PDF extraction and OCR.
type TextExtractor struct {
	pdf         PDFReader
	ocr         OCRService
	maxPages    int
	maxOCRBytes int
}

// NewTextExtractor creates an extractor with the fixed page ceiling. A
// non-positive maxOCRBytes selects DefaultMaxOCRBytes.
func NewTextExtractor(pdf PDFReader, ocr OCRService, maxOCRBytes int) *TextExtractor {
	if maxOCRBytes <= 0 {
		maxOCRBytes = DefaultMaxOCRBytes
	}
	return &TextExtractor{
		pdf:         pdf,
		ocr:         ocr,
		maxPages:    MaxPDFPages,
		maxOCRBytes: maxOCRBytes,
	}
}

// Extract returns the document's text in reading order. PDFs without a text
// layer are re-read through OCR from the same bytes.
func (e *TextExtractor) Extract(ctx context.Context, doc models.RawDocument) (string, error) {
	logCtx := slog.With("objectKey", doc.Key, "kind", doc.Kind)

	if doc.Kind == models.KindPDF {
		text, err := e.extractPDF(doc)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != "" {
			logCtx.Info("Extracted structural PDF text.", "bytes", len(text))
			return text, nil
		}
		logCtx.Info("PDF has no text layer. Falling back to OCR.")
	}

	text, err := e.extractOCR(ctx, doc)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &EmptyExtractionError{Kind: doc.Kind}
	}
	logCtx.Info("Extracted text with OCR.", "bytes", len(text))
	return text, nil
}

func (e *TextExtractor) extractPDF(doc models.RawDocument) (string, error) {
	pageCount, err := e.pdf.PageCount(doc.Data)
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if pageCount > e.maxPages {
		return "", &PageLimitExceededError{Count: pageCount, Limit: e.maxPages}
	}

	pages, err := e.pdf.PageTexts(doc.Data)
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	return strings.Join(pages, ""), nil
}

func (e *TextExtractor) extractOCR(ctx context.Context, doc models.RawDocument) (string, error) {
	if len(doc.Data) > e.maxOCRBytes {
		return "", &ValidationError{
			Field:  "objectKey",
			Reason: fmt.Sprintf("document is too large for OCR: %d bytes (max %d)", len(doc.Data), e.maxOCRBytes),
		}
	}

	blocks, err := e.ocr.DetectText(ctx, doc.Data, doc.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to detect text: %w", err)
	}

	var lines []string
	for _, block := range blocks {
		if block.Type == models.BlockLine {
			lines = append(lines, block.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
