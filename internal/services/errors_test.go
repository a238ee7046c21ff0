package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lllllllleong/documenttranslator/internal/services"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		err    error
		kind   services.ErrorKind
		client bool
	}{
		{&services.ValidationError{Field: "objectKey", Reason: "is required"}, services.KindValidation, true},
		{&services.PageLimitExceededError{Count: 11, Limit: 10}, services.KindPageLimitExceeded, true},
		{&services.EmptyExtractionError{Kind: "image"}, services.KindEmptyExtraction, true},
		{&services.StorageError{Op: "get", Key: "k", Err: cause}, services.KindStorage, false},
		{&services.TranslationError{Err: cause}, services.KindTranslation, false},
		{&services.InternalError{Step: "render", Err: cause}, services.KindInternal, false},
		{cause, services.KindInternal, false},
		{fmt.Errorf("wrapped: %w", &services.PageLimitExceededError{Count: 12, Limit: 10}), services.KindPageLimitExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, services.KindOf(tt.err))
			assert.Equal(t, tt.client, services.IsClientFault(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "objectKey is required", (&services.ValidationError{Field: "objectKey", Reason: "is required"}).Error())
	assert.Equal(t, "no text could be extracted from image document", (&services.EmptyExtractionError{Kind: "image"}).Error())

	cause := errors.New("bucket gone")
	err := &services.StorageError{Op: "put", Key: "translated/x.pdf", Err: cause}
	assert.Equal(t, `storage put "translated/x.pdf": bucket gone`, err.Error())
	assert.ErrorIs(t, err, cause)
}
