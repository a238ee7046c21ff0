// Package servicestest provides in-memory fakes of the pipeline's external
// capabilities for use in tests.
package servicestest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/Lllllllleong/documenttranslator/internal/services"
)

// StoredObject is one object held by a MemoryStore.
type StoredObject struct {
	Data        []byte
	ContentType string
}

// SignedURL records one URL issued by a MemoryStore.
type SignedURL struct {
	Method      string
	Key         string
	ContentType string
	TTL         time.Duration
}

// MemoryStore is a map-backed document store and URL signer.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string]StoredObject
	Puts    []string
	Signed  []SignedURL

	GetErr  error
	PutErr  error
	SignErr error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string]StoredObject)}
}

// Seed adds an object without counting it as a write.
func (s *MemoryStore) Seed(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = StoredObject{Data: data}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	obj, ok := s.Objects[key]
	if !ok {
		return nil, fmt.Errorf("memory://%s: %w", key, models.ErrObjectNotFound)
	}
	return obj.Data, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	if _, exists := s.Objects[key]; exists {
		return fmt.Errorf("object %s already exists", key)
	}
	s.Objects[key] = StoredObject{Data: data, ContentType: contentType}
	s.Puts = append(s.Puts, key)
	return nil
}

func (s *MemoryStore) RetrievalURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.sign(SignedURL{Method: "GET", Key: key, TTL: ttl})
}

func (s *MemoryStore) UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return s.sign(SignedURL{Method: "PUT", Key: key, ContentType: contentType, TTL: ttl})
}

func (s *MemoryStore) sign(u SignedURL) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SignErr != nil {
		return "", s.SignErr
	}
	s.Signed = append(s.Signed, u)
	return fmt.Sprintf("https://storage.example.com/%s?method=%s&expires=%d", u.Key, u.Method, int(u.TTL.Seconds())), nil
}

// Writes returns the number of objects written through Put.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Puts)
}

// PDFReader serves canned page texts regardless of input bytes.
type PDFReader struct {
	Pages    []string
	Count    int // overrides len(Pages) when non-zero
	CountErr error
	TextErr  error
	TextRead bool
}

func (r *PDFReader) PageCount(data []byte) (int, error) {
	if r.CountErr != nil {
		return 0, r.CountErr
	}
	if r.Count != 0 {
		return r.Count, nil
	}
	return len(r.Pages), nil
}

func (r *PDFReader) PageTexts(data []byte) ([]string, error) {
	r.TextRead = true
	if r.TextErr != nil {
		return nil, r.TextErr
	}
	return r.Pages, nil
}

// OCR returns canned blocks and records what it was called with.
type OCR struct {
	Blocks []models.TextBlock
	Err    error

	Calls     int
	Data      []byte
	MIMEType  string
	MIMETypes []string
}

func (o *OCR) DetectText(ctx context.Context, data []byte, mimeType string) ([]models.TextBlock, error) {
	o.Calls++
	o.Data = data
	o.MIMEType = mimeType
	o.MIMETypes = append(o.MIMETypes, mimeType)
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Blocks, nil
}

// Lines builds LINE blocks from text.
func Lines(texts ...string) []models.TextBlock {
	blocks := make([]models.TextBlock, 0, len(texts))
	for _, t := range texts {
		blocks = append(blocks, models.TextBlock{Type: models.BlockLine, Text: t})
	}
	return blocks
}

// Translator prefixes every input with the target language, or fails with Err.
type Translator struct {
	Err    error
	Inputs []string
	Pairs  [][2]string
}

func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	t.Inputs = append(t.Inputs, text)
	t.Pairs = append(t.Pairs, [2]string{sourceLang, targetLang})
	if t.Err != nil {
		return "", t.Err
	}
	return "[" + targetLang + "] " + text, nil
}

// PageWriter writes a short marker instead of a real PDF.
type PageWriter struct {
	Err   error
	Pages []models.Page
}

func (w *PageWriter) WritePages(ctx context.Context, pages []models.Page, layout services.PageLayout, out io.Writer) error {
	if w.Err != nil {
		return w.Err
	}
	w.Pages = pages
	_, err := fmt.Fprintf(out, "%%PDF-fake pages=%d", len(pages))
	return err
}

// JobRecorder keeps every recorded job.
type JobRecorder struct {
	mu   sync.Mutex
	Jobs []models.TranslationJob
	Err  error
}

func (r *JobRecorder) Record(ctx context.Context, job models.TranslationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Jobs = append(r.Jobs, job)
	return r.Err
}

// Sequence returns an ID generator yielding prefix-1, prefix-2, ...
func Sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
