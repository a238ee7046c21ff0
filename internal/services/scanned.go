package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageImageOCR lets an image-only OCR engine read scanned PDFs. For a PDF it
// extracts the images embedded in each page and recognizes them in page order;
// any other input is passed through unchanged.
type PageImageOCR struct {
	next OCRService
}

// NewPageImageOCR wraps next.
func NewPageImageOCR(next OCRService) *PageImageOCR {
	return &PageImageOCR{next: next}
}

func (o *PageImageOCR) DetectText(ctx context.Context, data []byte, mimeType string) ([]models.TextBlock, error) {
	if mimeType != "application/pdf" {
		return o.next.DetectText(ctx, data, mimeType)
	}

	images, err := pageImages(data)
	if err != nil {
		return nil, err
	}
	slog.Info("Recognizing scanned PDF page images.", "images", len(images))

	var blocks []models.TextBlock
	for _, img := range images {
		raw, err := io.ReadAll(img)
		if err != nil {
			return nil, fmt.Errorf("read image %s on page %d: %w", img.Name, img.PageNr, err)
		}
		found, err := o.next.DetectText(ctx, raw, models.ContentTypeFromKey("page."+img.FileType))
		if err != nil {
			return nil, fmt.Errorf("ocr page %d: %w", img.PageNr, err)
		}
		blocks = append(blocks, found...)
	}
	return blocks, nil
}

// pageImages returns every non-thumbnail image of the document ordered by page,
// then by object number within a page.
func pageImages(data []byte) ([]model.Image, error) {
	perPage, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, relaxedConfig())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu extract images: %w", err)
	}

	var images []model.Image
	for _, m := range perPage {
		for _, img := range m {
			if !img.Thumb {
				images = append(images, img)
			}
		}
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].PageNr != images[j].PageNr {
			return images[i].PageNr < images[j].PageNr
		}
		return images[i].ObjNr < images[j].ObjNr
	})
	return images, nil
}
