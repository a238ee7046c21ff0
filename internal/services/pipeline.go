package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/google/uuid"
)

// DefaultDownloadTTL is how long the retrieval handle of a translated document stays valid.
const DefaultDownloadTTL = time.Hour

// DocumentStore is the object storage the pipeline reads sources from and writes results to.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	RetrievalURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// JobRecorder keeps an audit trail of pipeline runs.
type JobRecorder interface {
	Record(ctx context.Context, job models.TranslationJob) error
}

// NopJobRecorder discards job records.
type NopJobRecorder struct{}

func (NopJobRecorder) Record(context.Context, models.TranslationJob) error { return nil }

// PipelineConfig holds the output settings of the pipeline.
type PipelineConfig struct {
	TranslatedPrefix string
	DownloadTTL      time.Duration
}

// Pipeline runs extraction, translation, rendering and storage for one document.
type Pipeline struct {
	store      DocumentStore
	extractor  *TextExtractor
	translator TranslationService
	renderer   *PageRenderer
	jobs       JobRecorder
	config     PipelineConfig
	newID      func() string
	now        func() time.Time
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithClock replaces the wall clock used for expiry and job timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator replaces the generator for run IDs and output object names.
func WithIDGenerator(newID func() string) PipelineOption {
	return func(p *Pipeline) { p.newID = newID }
}

// WithJobRecorder records every run through jobs.
func WithJobRecorder(jobs JobRecorder) PipelineOption {
	return func(p *Pipeline) { p.jobs = jobs }
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(store DocumentStore, extractor *TextExtractor, translator TranslationService, renderer *PageRenderer, config PipelineConfig, opts ...PipelineOption) *Pipeline {
	if config.DownloadTTL <= 0 {
		config.DownloadTTL = DefaultDownloadTTL
	}
	config.TranslatedPrefix = strings.Trim(config.TranslatedPrefix, "/")
	p := &Pipeline{
		store:      store,
		extractor:  extractor,
		translator: translator,
		renderer:   renderer,
		jobs:       NopJobRecorder{},
		config:     config,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the pipeline's output settings.
func (p *Pipeline) Config() PipelineConfig { return p.config }

// Run translates the document stored at key and returns the stored result.
// Every failure is one of the error types in errors.go.
func (p *Pipeline) Run(ctx context.Context, key string) (artifact *models.StoredArtifact, err error) {
	job := models.TranslationJob{
		RunID:     p.newID(),
		SourceKey: key,
		CreatedAt: p.now(),
	}
	logCtx := slog.With("objectKey", key, "runId", job.RunID)
	logCtx.Info("Starting translation run.")

	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Recovered from panic.", "panic", r, "stack", string(debug.Stack()))
			artifact, err = nil, &InternalError{Step: "panic", Err: fmt.Errorf("%v", r)}
		}
		p.finish(ctx, logCtx, &job, artifact, err)
	}()

	return p.run(ctx, logCtx, key, &job)
}

func (p *Pipeline) run(ctx context.Context, logCtx *slog.Logger, key string, job *models.TranslationJob) (*models.StoredArtifact, error) {
	if strings.TrimSpace(key) == "" {
		return nil, &ValidationError{Field: "objectKey", Reason: "is required"}
	}

	data, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, NotFound: errors.Is(err, models.ErrObjectNotFound), Err: err}
	}
	doc := models.NewRawDocument(key, data)
	job.Kind = string(doc.Kind)
	logCtx.Info("Fetched source document.", "kind", doc.Kind, "bytes", len(data))

	text, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, asPipelineError("extract", err)
	}

	translated, err := p.translator.Translate(ctx, text, SourceLanguage, TargetLanguage)
	if err != nil {
		return nil, &TranslationError{Err: err}
	}
	logCtx.Info("Translated text.", "sourceBytes", len(text), "translatedBytes", len(translated))

	rendered, err := p.renderer.Render(ctx, translated)
	if err != nil {
		return nil, &InternalError{Step: "render", Err: err}
	}
	job.PageCount = len(rendered.Pages)

	outKey := fmt.Sprintf("%s/%s-translated.pdf", p.config.TranslatedPrefix, p.newID())
	if err := p.store.Put(ctx, outKey, rendered.Data, "application/pdf"); err != nil {
		return nil, &StorageError{Op: "put", Key: outKey, Err: err}
	}

	issued := p.now()
	url, err := p.store.RetrievalURL(ctx, outKey, p.config.DownloadTTL)
	if err != nil {
		return nil, &StorageError{Op: "sign", Key: outKey, Err: err}
	}
	return &models.StoredArtifact{
		Key:         outKey,
		DownloadURL: url,
		ExpiresAt:   issued.Add(p.config.DownloadTTL),
	}, nil
}

func (p *Pipeline) finish(ctx context.Context, logCtx *slog.Logger, job *models.TranslationJob, artifact *models.StoredArtifact, err error) {
	job.CompletedAt = p.now()
	elapsed := job.CompletedAt.Sub(job.CreatedAt)

	if err != nil {
		job.Status = models.JobFailed
		job.ErrorCode = string(KindOf(err))
		job.ErrorDetails = err.Error()
		if IsClientFault(err) {
			logCtx.Warn("Translation run rejected.", "errorCode", job.ErrorCode, "error", err, "elapsed", elapsed)
		} else {
			logCtx.Error("Translation run failed.", "errorCode", job.ErrorCode, "error", err, "elapsed", elapsed)
		}
	} else {
		job.Status = models.JobSucceeded
		job.TranslatedKey = artifact.Key
		logCtx.Info("Translation run complete.", "translatedKey", artifact.Key, "pages", job.PageCount, "elapsed", elapsed)
	}

	if recErr := p.jobs.Record(context.WithoutCancel(ctx), *job); recErr != nil {
		logCtx.Error("Failed to record job.", "error", recErr)
	}
}
