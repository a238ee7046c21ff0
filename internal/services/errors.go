package services

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/documenttranslator/internal/models"
)

// ErrorKind is the stable code reported to callers for a failed run.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindPageLimitExceeded ErrorKind = "PAGE_LIMIT_EXCEEDED"
	KindEmptyExtraction   ErrorKind = "EMPTY_EXTRACTION"
	KindStorage           ErrorKind = "STORAGE_ERROR"
	KindTranslation       ErrorKind = "TRANSLATION_ERROR"
	KindInternal          ErrorKind = "INTERNAL_ERROR"
)

// pipelineError is implemented only by the error types in this file.
type pipelineError interface {
	error
	kind() ErrorKind
}

// ValidationError reports a missing or unusable input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) kind() ErrorKind { return KindValidation }

// PageLimitExceededError rejects PDFs with more pages than the structural extraction ceiling.
type PageLimitExceededError struct {
	Count int
	Limit int
}

func (e *PageLimitExceededError) Error() string {
	return fmt.Sprintf("PDF page limit exceeded: %d pages (max %d)", e.Count, e.Limit)
}

func (e *PageLimitExceededError) kind() ErrorKind { return KindPageLimitExceeded }

// EmptyExtractionError means no strategy recovered any text.
type EmptyExtractionError struct {
	Kind models.DocumentKind
}

func (e *EmptyExtractionError) Error() string {
	return fmt.Sprintf("no text could be extracted from %s document", e.Kind)
}

func (e *EmptyExtractionError) kind() ErrorKind { return KindEmptyExtraction }

// StorageError wraps a document store failure.
type StorageError struct {
	Op       string
	Key      string
	NotFound bool
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error    { return e.Err }
func (e *StorageError) kind() ErrorKind { return KindStorage }

// TranslationError wraps a translation service failure.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Err)
}

func (e *TranslationError) Unwrap() error    { return e.Err }
func (e *TranslationError) kind() ErrorKind { return KindTranslation }

// InternalError is the catch-all for failures no other type classifies.
type InternalError struct {
	Step string
	Err  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error during %s: %v", e.Step, e.Err)
}

func (e *InternalError) Unwrap() error    { return e.Err }
func (e *InternalError) kind() ErrorKind { return KindInternal }

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) ErrorKind {
	var pe pipelineError
	if errors.As(err, &pe) {
		return pe.kind()
	}
	return KindInternal
}

// IsClientFault reports whether err was caused by the caller's input rather than the service.
func IsClientFault(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindPageLimitExceeded, KindEmptyExtraction:
		return true
	}
	return false
}

// asPipelineError leaves typed errors untouched and wraps anything else as an InternalError.
func asPipelineError(step string, err error) error {
	var pe pipelineError
	if errors.As(err, &pe) {
		return err
	}
	return &InternalError{Step: step, Err: err}
}
