package models

import (
	"errors"
	"mime"
	"path"
	"strings"
	"time"
)

// ErrObjectNotFound is returned (wrapped) by a document store when the requested key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// DocumentKind selects the text extraction strategy for a stored document.
type DocumentKind string

const (
	KindPDF   DocumentKind = "pdf"
	KindImage DocumentKind = "image"
)

// KindFromKey classifies a key by its extension. ".pdf" (any case) is a PDF,
// everything else is treated as an image.
func KindFromKey(key string) DocumentKind {
	if strings.HasSuffix(strings.ToLower(key), ".pdf") {
		return KindPDF
	}
	return KindImage
}

// ContentTypeFromKey returns the MIME type implied by the key's extension.
func ContentTypeFromKey(key string) string {
	ext := strings.ToLower(path.Ext(key))
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// RawDocument is a fetched source document. It lives only for one pipeline run.
type RawDocument struct {
	Key         string
	Kind        DocumentKind
	ContentType string
	Data        []byte
}

// NewRawDocument builds a RawDocument, deriving kind and content type from the key.
func NewRawDocument(key string, data []byte) RawDocument {
	return RawDocument{
		Key:         key,
		Kind:        KindFromKey(key),
		ContentType: ContentTypeFromKey(key),
		Data:        data,
	}
}

// BlockType is the granularity of an OCR result block.
type BlockType string

const (
	BlockPage BlockType = "PAGE"
	BlockLine BlockType = "LINE"
	BlockWord BlockType = "WORD"
)

// TextBlock is one unit of recognized text returned by an OCR service.
type TextBlock struct {
	Type BlockType
	Text string
}

// PlacedLine is a line of text drawn at a fixed position on a page.
type PlacedLine struct {
	Text string
	X    float64
	Y    float64
}

// Page is one fixed-size canvas of the rendered output.
type Page struct {
	Number int
	Lines  []PlacedLine
}

// RenderedDocument is the laid-out pages plus their serialized PDF bytes.
type RenderedDocument struct {
	Pages []Page
	Data  []byte
}

// StoredArtifact is the only result of a run that outlives it.
type StoredArtifact struct {
	Key         string
	DownloadURL string
	ExpiresAt   time.Time
}

// Job statuses recorded for each pipeline run.
const (
	JobSucceeded = "SUCCEEDED"
	JobFailed    = "FAILED"
)

// TranslationJob is the Firestore audit record of a single pipeline run.
type TranslationJob struct {
	RunID         string    `firestore:"runId"`
	SourceKey     string    `firestore:"sourceKey"`
	Kind          string    `firestore:"kind,omitempty"`
	Status        string    `firestore:"status"`
	ErrorCode     string    `firestore:"errorCode,omitempty"`
	ErrorDetails  string    `firestore:"errorDetails,omitempty"`
	TranslatedKey string    `firestore:"translatedKey,omitempty"`
	PageCount     int       `firestore:"pageCount,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt"`
	CompletedAt   time.Time `firestore:"completedAt"`
}
