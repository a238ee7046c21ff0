package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Lllllllleong/documenttranslator/internal/gcp"
	"github.com/Lllllllleong/documenttranslator/internal/tesseract"
	"golang.org/x/time/rate"
)

// TranslatorConfig holds all configuration for the translation functions.
type TranslatorConfig struct {
	ProjectID        string
	Bucket           string
	UploadPrefix     string
	TranslatedPrefix string
	VertexAIRegion   string
	TranslatorModel  string
	OCRModel         string
	OCRBackend       string
	DownloadTTL      time.Duration
	PresignTTL       time.Duration
	MaxOCRBytes      int
	ChunkBytes       int
	TranslateRPS     float64
	TranslateBurst   int
	JobCollection    string
	FontFile         string
	FontName         string
	PDFConfigDir     string
}

// LoadConfig loads and validates the environment shared by all functions.
func LoadConfig() (*TranslatorConfig, error) {
	bucket := gcp.GetEnv("BUCKET_NAME", "")
	if bucket == "" {
		return nil, fmt.Errorf("BUCKET_NAME environment variable must be set")
	}

	config := &TranslatorConfig{
		ProjectID:        gcp.GetEnv("PROJECT_ID", ""),
		Bucket:           bucket,
		UploadPrefix:     gcp.GetEnv("UPLOAD_PREFIX", "uploads"),
		TranslatedPrefix: gcp.GetEnv("TRANSLATED_PREFIX", "translated"),
		VertexAIRegion:   gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		TranslatorModel:  gcp.GetEnv("TRANSLATOR_MODEL", "gemini-1.5-pro"),
		OCRModel:         gcp.GetEnv("OCR_MODEL", "gemini-1.5-pro"),
		OCRBackend:       gcp.GetEnv("OCR_BACKEND", "vertex"),
		JobCollection:    gcp.GetEnv("JOB_COLLECTION", ""),
		FontFile:         gcp.GetEnv("FONT_FILE", ""),
		FontName:         gcp.GetEnv("FONT_NAME", A4Layout.FontName),
		PDFConfigDir:     gcp.GetEnv("PDFCPU_CONFIG_DIR", os.TempDir()),
	}

	var err error
	if config.DownloadTTL, err = envDuration("DOWNLOAD_URL_TTL", DefaultDownloadTTL); err != nil {
		return nil, err
	}
	if config.PresignTTL, err = envDuration("PRESIGN_TTL", DefaultPresignTTL); err != nil {
		return nil, err
	}
	if config.MaxOCRBytes, err = envInt("MAX_OCR_BYTES", DefaultMaxOCRBytes); err != nil {
		return nil, err
	}
	if config.ChunkBytes, err = envInt("TRANSLATE_CHUNK_BYTES", DefaultChunkBytes); err != nil {
		return nil, err
	}
	if config.TranslateBurst, err = envInt("TRANSLATE_BURST", 1); err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(gcp.GetEnv("TRANSLATE_RPS", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("TRANSLATE_RPS: %w", err)
	}
	config.TranslateRPS = rps

	if config.OCRBackend != "vertex" && config.OCRBackend != "tesseract" {
		return nil, fmt.Errorf("OCR_BACKEND must be vertex or tesseract, got %q", config.OCRBackend)
	}
	return config, nil
}

// NewPipelineFromEnv builds the pipeline with GCP-backed collaborators.
func NewPipelineFromEnv(ctx context.Context, config *TranslatorConfig) (*Pipeline, error) {
	if config.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	store, err := gcp.NewGCSStore(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.TranslatorModel, config.OCRModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	var ocr OCRService = gcp.NewVertexOCR(vertexClient)
	if config.OCRBackend == "tesseract" {
		if !tesseract.Available() {
			return nil, tesseract.ErrUnavailable
		}
		// Tesseract reads images only; scanned PDFs are OCR'd page image by page image.
		ocr = NewPageImageOCR(tesseract.NewEngine("eng"))
	}

	if config.FontFile == "" {
		slog.Warn("No FONT_FILE configured; core fonts have no glyphs for the target language and translated pages will be blank.",
			"targetLanguage", TargetLanguage, "fontName", config.FontName)
	}
	if err := ConfigureFonts(config.PDFConfigDir, config.FontFile, config.FontName); err != nil {
		return nil, err
	}
	layout := A4Layout
	layout.FontName = config.FontName

	var limiter *rate.Limiter
	if config.TranslateRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.TranslateRPS), max(config.TranslateBurst, 1))
	}

	opts := []PipelineOption{}
	if config.JobCollection != "" {
		firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		opts = append(opts, WithJobRecorder(gcp.NewFirestoreJobRecorder(firestoreClient, config.JobCollection)))
	}

	pipeline := NewPipeline(
		store,
		NewTextExtractor(NewStructuralPDFReader(), ocr, config.MaxOCRBytes),
		NewChunkedTranslator(gcp.NewVertexTranslator(vertexClient), config.ChunkBytes, limiter),
		NewPageRenderer(layout, NewPDFCPUWriter()),
		PipelineConfig{TranslatedPrefix: config.TranslatedPrefix, DownloadTTL: config.DownloadTTL},
		opts...,
	)
	slog.Info("Translation pipeline initialized.", "bucket", config.Bucket, "ocrBackend", config.OCRBackend, "jobCollection", config.JobCollection)
	return pipeline, nil
}

// NewPresignerFromEnv builds the signed URL service over the document bucket.
func NewPresignerFromEnv(ctx context.Context, config *TranslatorConfig) (*Presigner, error) {
	store, err := gcp.NewGCSStore(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}
	return NewPresigner(store, PresignConfig{
		UploadPrefix:     config.UploadPrefix,
		TranslatedPrefix: config.TranslatedPrefix,
		TTL:              config.PresignTTL,
	}), nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
