package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Lllllllleong/documenttranslator/internal/models"
)

// DefaultPresignTTL is the validity of upload and on-demand download URLs.
const DefaultPresignTTL = 5 * time.Minute

// ErrAccessDenied is returned when a download is requested outside the translated prefix.
var ErrAccessDenied = errors.New("access denied")

// URLSigner issues signed URLs for objects in the document bucket.
type URLSigner interface {
	RetrievalURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// PresignConfig holds the key layout and validity window for signed URLs.
type PresignConfig struct {
	UploadPrefix     string
	TranslatedPrefix string
	TTL              time.Duration
}

// Presigner hands out direct-to-bucket upload and download URLs.
type Presigner struct {
	signer URLSigner
	config PresignConfig
	now    func() time.Time
}

// NewPresigner creates a Presigner. A non-positive TTL selects DefaultPresignTTL.
func NewPresigner(signer URLSigner, config PresignConfig) *Presigner {
	if config.TTL <= 0 {
		config.TTL = DefaultPresignTTL
	}
	config.UploadPrefix = strings.Trim(config.UploadPrefix, "/")
	config.TranslatedPrefix = strings.Trim(config.TranslatedPrefix, "/")
	return &Presigner{signer: signer, config: config, now: time.Now}
}

// UploadURL returns a signed PUT URL for a new object under the upload prefix.
func (s *Presigner) UploadURL(ctx context.Context, req models.UploadURLRequest) (*models.UploadURLResponse, error) {
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.ContentType) == "" {
		return nil, &ValidationError{Field: "fileName and contentType", Reason: "are required"}
	}
	name := path.Base(strings.ReplaceAll(req.FileName, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return nil, &ValidationError{Field: "fileName", Reason: "is not a valid file name"}
	}

	key := fmt.Sprintf("%s/%d-%s", s.config.UploadPrefix, s.now().UnixMilli(), name)
	url, err := s.signer.UploadURL(ctx, key, req.ContentType, s.config.TTL)
	if err != nil {
		return nil, &StorageError{Op: "sign", Key: key, Err: err}
	}
	return &models.UploadURLResponse{UploadURL: url, ObjectKey: key}, nil
}

// DownloadURL returns a signed GET URL for a translated object.
func (s *Presigner) DownloadURL(ctx context.Context, key string) (*models.DownloadURLResponse, error) {
	if strings.TrimSpace(key) == "" {
		return nil, &ValidationError{Field: "objectKey", Reason: "is required"}
	}
	if !strings.HasPrefix(key, s.config.TranslatedPrefix+"/") || path.Clean(key) != key {
		return nil, ErrAccessDenied
	}

	url, err := s.signer.RetrievalURL(ctx, key, s.config.TTL)
	if err != nil {
		return nil, &StorageError{Op: "sign", Key: key, Err: err}
	}
	return &models.DownloadURLResponse{DownloadURL: url, ObjectKey: key}, nil
}
