package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documenttranslator/internal/services"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("BUCKET_NAME", "docs")
	t.Setenv("PROJECT_ID", "proj")
	t.Setenv("OCR_BACKEND", "vertex")
	t.Setenv("DOWNLOAD_URL_TTL", "")
	t.Setenv("PRESIGN_TTL", "")
	t.Setenv("MAX_OCR_BYTES", "")
	t.Setenv("TRANSLATE_CHUNK_BYTES", "")
	t.Setenv("TRANSLATE_BURST", "")
	t.Setenv("TRANSLATE_RPS", "2")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	config, err := services.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "docs", config.Bucket)
	assert.Equal(t, services.DefaultDownloadTTL, config.DownloadTTL)
	assert.Equal(t, services.DefaultPresignTTL, config.PresignTTL)
	assert.Equal(t, services.DefaultMaxOCRBytes, config.MaxOCRBytes)
	assert.Equal(t, services.DefaultChunkBytes, config.ChunkBytes)
	assert.Equal(t, 1, config.TranslateBurst)
	assert.Equal(t, 2.0, config.TranslateRPS)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DOWNLOAD_URL_TTL", "15m")
	t.Setenv("PRESIGN_TTL", "90s")
	t.Setenv("TRANSLATE_CHUNK_BYTES", "4000")
	t.Setenv("OCR_BACKEND", "tesseract")
	t.Setenv("PDFCPU_CONFIG_DIR", "/tmp/pdfcpu-test")

	config, err := services.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, config.DownloadTTL)
	assert.Equal(t, 90*time.Second, config.PresignTTL)
	assert.Equal(t, 4000, config.ChunkBytes)
	assert.Equal(t, "tesseract", config.OCRBackend)
	assert.Equal(t, "/tmp/pdfcpu-test", config.PDFConfigDir)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"missing bucket": {"BUCKET_NAME", ""},
		"bad duration":   {"DOWNLOAD_URL_TTL", "an hour"},
		"bad int":        {"MAX_OCR_BYTES", "lots"},
		"bad rps":        {"TRANSLATE_RPS", "fast"},
		"bad backend":    {"OCR_BACKEND", "textract"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := services.LoadConfig()
			assert.ErrorContains(t, err, kv[0])
		})
	}
}
