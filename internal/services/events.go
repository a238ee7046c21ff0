package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/documenttranslator/internal/models"
)

// UploadTrigger runs the pipeline for objects finalized under the upload prefix.
type UploadTrigger struct {
	pipeline     *Pipeline
	bucket       string
	uploadPrefix string
}

// NewUploadTrigger creates a trigger that only reacts to bucket/uploadPrefix.
func NewUploadTrigger(pipeline *Pipeline, bucket, uploadPrefix string) *UploadTrigger {
	return &UploadTrigger{
		pipeline:     pipeline,
		bucket:       bucket,
		uploadPrefix: strings.Trim(uploadPrefix, "/") + "/",
	}
}

// Handle processes one GCS event. Objects outside the upload prefix are
// ignored, which also keeps the pipeline's own output from retriggering it.
// Rejected inputs are acknowledged; only server faults are returned.
func (t *UploadTrigger) Handle(ctx context.Context, e models.GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if e.Bucket != t.bucket || !strings.HasPrefix(e.Name, t.uploadPrefix) || strings.HasSuffix(e.Name, "/") {
		logCtx.Info("Ignoring object outside the upload prefix.")
		return nil
	}

	artifact, err := t.pipeline.Run(ctx, e.Name)
	if err != nil {
		if IsClientFault(err) {
			logCtx.Warn("Uploaded document rejected.", "errorCode", KindOf(err), "error", err)
			return nil
		}
		return err
	}
	logCtx.Info("Uploaded document translated.", "translatedKey", artifact.Key)
	return nil
}
