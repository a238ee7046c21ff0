package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/documenttranslator/internal/handlers"
	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/Lllllllleong/documenttranslator/internal/services"
	"github.com/Lllllllleong/documenttranslator/internal/services/servicestest"
)

type env struct {
	store      *servicestest.MemoryStore
	pdf        *servicestest.PDFReader
	translator *servicestest.Translator
	pipeline   *services.Pipeline
}

func newEnv() *env {
	e := &env{
		store:      servicestest.NewMemoryStore(),
		pdf:        &servicestest.PDFReader{Pages: []string{"Hello, world."}},
		translator: &servicestest.Translator{},
	}
	e.pipeline = services.NewPipeline(
		e.store,
		services.NewTextExtractor(e.pdf, &servicestest.OCR{}, 0),
		e.translator,
		services.NewPageRenderer(services.A4Layout, &servicestest.PageWriter{}),
		services.PipelineConfig{TranslatedPrefix: "translated"},
		services.WithIDGenerator(servicestest.Sequence("run")),
	)
	return e
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestTranslate_Success(t *testing.T) {
	e := newEnv()
	e.store.Seed("uploads/sample.pdf", []byte("%PDF"))

	rec, body := post(t, handlers.Translate(e.pipeline), `{"objectKey":"uploads/sample.pdf"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "translated/run-2-translated.pdf", body["translatedKey"])
	assert.Contains(t, body["downloadUrl"], "translated/run-2-translated.pdf")
	assert.Contains(t, body["downloadUrl"], "expires=3600")
}

func TestTranslate_MissingObjectKey(t *testing.T) {
	for _, payload := range []string{`{}`, `{"objectKey":""}`, ``} {
		e := newEnv()
		rec, body := post(t, handlers.Translate(e.pipeline), payload)

		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
		assert.Equal(t, "VALIDATION_ERROR", body["error"])
		assert.Contains(t, body["message"], "objectKey")
		assert.Zero(t, e.store.Writes())
	}
}

func TestTranslate_MalformedJSON(t *testing.T) {
	e := newEnv()
	rec, body := post(t, handlers.Translate(e.pipeline), `{"objectKey":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["error"])
}

func TestTranslate_PageLimitExceeded(t *testing.T) {
	e := newEnv()
	e.pdf.Count = 15
	e.store.Seed("uploads/long.pdf", []byte("%PDF"))

	rec, body := post(t, handlers.Translate(e.pipeline), `{"objectKey":"uploads/long.pdf"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PAGE_LIMIT_EXCEEDED", body["error"])
	assert.Contains(t, body["message"], "max 10")
	assert.Empty(t, e.translator.Inputs)
	assert.Zero(t, e.store.Writes())
}

func TestTranslate_ServerFaultsAreOpaque(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *env)
		code  string
	}{
		{
			name:  "missing object",
			setup: func(e *env) {},
			code:  "STORAGE_ERROR",
		},
		{
			name: "translation backend",
			setup: func(e *env) {
				e.store.Seed("uploads/sample.pdf", []byte("%PDF"))
				e.translator.Err = errors.New("secret upstream detail")
			},
			code: "TRANSLATION_ERROR",
		},
		{
			name: "corrupt pdf",
			setup: func(e *env) {
				e.store.Seed("uploads/sample.pdf", []byte("%PDF"))
				e.pdf.CountErr = errors.New("secret parser detail")
			},
			code: "INTERNAL_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			tt.setup(e)

			rec, body := post(t, handlers.Translate(e.pipeline), `{"objectKey":"uploads/sample.pdf"}`)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.code, body["error"])
			assert.NotEmpty(t, body["message"])
			assert.NotContains(t, rec.Body.String(), "secret")
			assert.NotContains(t, rec.Body.String(), "uploads/sample.pdf")
		})
	}
}

func TestTranslate_Methods(t *testing.T) {
	h := handlers.Translate(newEnv().pipeline)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func newPresigner(store *servicestest.MemoryStore) *services.Presigner {
	return services.NewPresigner(store, services.PresignConfig{
		UploadPrefix:     "uploads",
		TranslatedPrefix: "translated",
		TTL:              5 * time.Minute,
	})
}

func TestUploadURL(t *testing.T) {
	store := servicestest.NewMemoryStore()
	rec, body := post(t, handlers.UploadURL(newPresigner(store)), `{"fileName":"doc.pdf","contentType":"application/pdf"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `^uploads/\d+-doc\.pdf$`, body["objectKey"])
	assert.Contains(t, body["uploadUrl"], "method=PUT")

	rec, body = post(t, handlers.UploadURL(newPresigner(store)), `{"fileName":"doc.pdf"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fileName and contentType are required", body["message"])
}

func TestDownloadURL(t *testing.T) {
	store := servicestest.NewMemoryStore()
	h := handlers.DownloadURL(newPresigner(store))

	get := func(query string) (*httptest.ResponseRecorder, map[string]string) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+query, nil))
		var out map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec, out
	}

	rec, body := get("?objectKey=translated/run-2-translated.pdf")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "translated/run-2-translated.pdf", body["objectKey"])
	assert.Contains(t, body["downloadUrl"], "expires=300")

	rec, body = get("?objectKey=uploads/secret.pdf")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", body["message"])

	rec, _ = get("")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recordingHandler struct {
	events []models.GCSEvent
	err    error
}

func (h *recordingHandler) Handle(ctx context.Context, e models.GCSEvent) error {
	h.events = append(h.events, e)
	return h.err
}

func TestUploadEvent(t *testing.T) {
	h := &recordingHandler{}
	fn := handlers.UploadEvent(h)

	event := cloudevents.NewEvent()
	event.SetID("1")
	event.SetSource("//storage.googleapis.com/projects/_/buckets/docs")
	event.SetType("google.cloud.storage.object.v1.finalized")
	require.NoError(t, event.SetData(cloudevents.ApplicationJSON, map[string]string{
		"bucket":      "docs",
		"name":        "uploads/a.pdf",
		"contentType": "application/pdf",
	}))

	require.NoError(t, fn(context.Background(), event))
	assert.Equal(t, []models.GCSEvent{{Bucket: "docs", Name: "uploads/a.pdf", ContentType: "application/pdf"}}, h.events)

	h.err = errors.New("retry me")
	assert.ErrorIs(t, fn(context.Background(), event), h.err)
}

func TestUploadEvent_BadPayload(t *testing.T) {
	h := &recordingHandler{}
	event := cloudevents.NewEvent()
	event.SetID("1")
	event.SetSource("test")
	event.SetType("test")
	require.NoError(t, event.SetData(cloudevents.TextPlain, []byte("not json")))

	assert.Error(t, handlers.UploadEvent(h)(context.Background(), event))
	assert.Empty(t, h.events)
}

func TestInitFailed_UsesJSONEnvelope(t *testing.T) {
	h := handlers.InitFailed(handlers.PostMethods, errors.New("BUCKET_NAME environment variable must be set"))

	rec, body := post(t, h, `{"objectKey":"uploads/a.pdf"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "POST,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "INTERNAL_ERROR", body["error"])
	assert.NotEmpty(t, body["message"])
	assert.NotContains(t, rec.Body.String(), "BUCKET_NAME")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
