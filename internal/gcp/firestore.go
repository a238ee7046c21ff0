package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/documenttranslator/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreJobRecorder stores one document per pipeline run, keyed by run ID.
type FirestoreJobRecorder struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreJobRecorder writes job records into collection.
func NewFirestoreJobRecorder(client *firestore.Client, collection string) *FirestoreJobRecorder {
	return &FirestoreJobRecorder{client: client, collection: collection}
}

// Record upserts the job document.
func (r *FirestoreJobRecorder) Record(ctx context.Context, job models.TranslationJob) error {
	if job.RunID == "" {
		return fmt.Errorf("job record is missing a run ID")
	}
	if _, err := r.client.Collection(r.collection).Doc(job.RunID).Set(ctx, job); err != nil {
		return fmt.Errorf("failed to write job %s to %s: %w", job.RunID, r.collection, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *FirestoreJobRecorder) Close() error {
	return r.client.Close()
}
