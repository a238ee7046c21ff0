package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// The language pair is fixed; there is no auto-detection.
const (
	SourceLanguage = "en"
	TargetLanguage = "ja"
)

// DefaultChunkBytes keeps each request under the translation backend's input limit.
const DefaultChunkBytes = 9000

// TranslationService translates text between two languages.
type TranslationService interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// ChunkedTranslator splits long text at line boundaries, translates the chunks
// in order and joins the results with newlines.
type ChunkedTranslator struct {
	next     TranslationService
	maxBytes int
	limiter  *rate.Limiter
}

// NewChunkedTranslator wraps next. A nil limiter disables rate limiting.
func NewChunkedTranslator(next TranslationService, maxBytes int, limiter *rate.Limiter) *ChunkedTranslator {
	if maxBytes <= 0 {
		maxBytes = DefaultChunkBytes
	}
	return &ChunkedTranslator{next: next, maxBytes: maxBytes, limiter: limiter}
}

// Translate translates every chunk sequentially. The first failure aborts the whole call.
func (t *ChunkedTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	chunks := ChunkText(text, t.maxBytes)
	if len(chunks) > 1 {
		slog.Info("Translating in chunks.", "chunks", len(chunks), "bytes", len(text))
	}

	translated := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		// Runs of blank lines are kept as they are.
		if strings.TrimSpace(chunk) == "" {
			translated = append(translated, chunk)
			continue
		}
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("chunk %d/%d: rate limiter: %w", i+1, len(chunks), err)
			}
		}
		out, err := t.next.Translate(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		translated = append(translated, out)
	}
	return strings.Join(translated, "\n"), nil
}

// ChunkText groups lines into chunks of at most maxBytes. Lines are never
// merged across a chunk boundary; a single line longer than maxBytes is split
// at the last whitespace that fits, or at a rune boundary if there is none.
func ChunkText(text string, maxBytes int) []string {
	if len(text) <= maxBytes {
		return []string{text}
	}

	var chunks, pending []string
	size := 0
	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, strings.Join(pending, "\n"))
			pending, size = nil, 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		split := false
		for len(line) > maxBytes {
			flush()
			cut := splitPoint(line, maxBytes)
			chunks = append(chunks, line[:cut])
			line = strings.TrimLeftFunc(line[cut:], unicode.IsSpace)
			split = true
		}
		if split && line == "" {
			continue
		}
		need := len(line)
		if len(pending) > 0 {
			need++
			if size+need > maxBytes {
				flush()
				need = len(line)
			}
		}
		pending = append(pending, line)
		size += need
	}
	flush()
	return chunks
}

// splitPoint returns the byte offset to cut s at so that s[:cut] fits in maxBytes.
func splitPoint(s string, maxBytes int) int {
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if ws := strings.LastIndexFunc(s[:cut], unicode.IsSpace); ws > 0 {
		return ws
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}
