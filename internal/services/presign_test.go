package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/Lllllllleong/documenttranslator/internal/services"
	"github.com/Lllllllleong/documenttranslator/internal/services/servicestest"
)

func newPresigner(store *servicestest.MemoryStore) *services.Presigner {
	return services.NewPresigner(store, services.PresignConfig{
		UploadPrefix:     "uploads/",
		TranslatedPrefix: "translated",
	})
}

func TestUploadURL_IssuesPutURLUnderUploadPrefix(t *testing.T) {
	store := servicestest.NewMemoryStore()
	resp, err := newPresigner(store).UploadURL(context.Background(), models.UploadURLRequest{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^uploads/\d+-report\.pdf$`, resp.ObjectKey)
	require.Len(t, store.Signed, 1)
	assert.Equal(t, servicestest.SignedURL{
		Method:      "PUT",
		Key:         resp.ObjectKey,
		ContentType: "application/pdf",
		TTL:         services.DefaultPresignTTL,
	}, store.Signed[0])
	assert.Contains(t, resp.UploadURL, "method=PUT")
}

func TestUploadURL_StripsDirectoryComponents(t *testing.T) {
	store := servicestest.NewMemoryStore()
	for _, name := range []string{"../../etc/passwd", `C:\Users\me\passwd`} {
		resp, err := newPresigner(store).UploadURL(context.Background(), models.UploadURLRequest{
			FileName:    name,
			ContentType: "text/plain",
		})
		require.NoError(t, err, name)
		assert.Regexp(t, `^uploads/\d+-passwd$`, resp.ObjectKey)
	}
}

func TestUploadURL_RequiresNameAndContentType(t *testing.T) {
	tests := []models.UploadURLRequest{
		{},
		{FileName: "a.pdf"},
		{ContentType: "application/pdf"},
		{FileName: "..", ContentType: "application/pdf"},
	}
	for _, req := range tests {
		store := servicestest.NewMemoryStore()
		_, err := newPresigner(store).UploadURL(context.Background(), req)

		var validationErr *services.ValidationError
		require.ErrorAs(t, err, &validationErr, "%+v", req)
		assert.Empty(t, store.Signed)
	}
}

func TestDownloadURL(t *testing.T) {
	store := servicestest.NewMemoryStore()
	presigner := services.NewPresigner(store, services.PresignConfig{TranslatedPrefix: "translated", TTL: time.Minute})

	resp, err := presigner.DownloadURL(context.Background(), "translated/abc-translated.pdf")
	require.NoError(t, err)
	assert.Equal(t, "translated/abc-translated.pdf", resp.ObjectKey)
	require.Len(t, store.Signed, 1)
	assert.Equal(t, "GET", store.Signed[0].Method)
	assert.Equal(t, time.Minute, store.Signed[0].TTL)
}

func TestDownloadURL_OnlyTranslatedObjects(t *testing.T) {
	for _, key := range []string{
		"uploads/secret.pdf",
		"translatedX/a.pdf",
		"translated/../uploads/secret.pdf",
		"translated",
	} {
		store := servicestest.NewMemoryStore()
		_, err := newPresigner(store).DownloadURL(context.Background(), key)
		assert.ErrorIs(t, err, services.ErrAccessDenied, key)
		assert.Empty(t, store.Signed)
	}
}

func TestDownloadURL_Errors(t *testing.T) {
	store := servicestest.NewMemoryStore()
	_, err := newPresigner(store).DownloadURL(context.Background(), " ")
	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)

	store.SignErr = errors.New("no credentials")
	_, err = newPresigner(store).DownloadURL(context.Background(), "translated/a.pdf")
	assert.Equal(t, services.KindStorage, services.KindOf(err))
}
