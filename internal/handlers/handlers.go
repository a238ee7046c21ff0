// Package handlers adapts the translation services to Cloud Functions HTTP and
// CloudEvent entry points: request decoding, CORS, and the response envelope.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/Lllllllleong/documenttranslator/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Runner runs the translation pipeline for one stored document.
type Runner interface {
	Run(ctx context.Context, key string) (*models.StoredArtifact, error)
}

// URLIssuer hands out signed upload and download URLs.
type URLIssuer interface {
	UploadURL(ctx context.Context, req models.UploadURLRequest) (*models.UploadURLResponse, error)
	DownloadURL(ctx context.Context, key string) (*models.DownloadURLResponse, error)
}

// EventHandler processes a decoded GCS event.
type EventHandler interface {
	Handle(ctx context.Context, e models.GCSEvent) error
}

// Allowed methods advertised in CORS responses.
const (
	PostMethods = "POST,OPTIONS"
	GetMethods  = "GET,OPTIONS"
)

// serverFaultMessages are the only texts a caller sees for server-side failures.
var serverFaultMessages = map[services.ErrorKind]string{
	services.KindStorage:     "Failed to access document storage.",
	services.KindTranslation: "Translation service is unavailable.",
	services.KindInternal:    "An error occurred during translation processing.",
}

// Translate handles POST {"objectKey": "..."}.
func Translate(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w, PostMethods)
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var req models.TranslateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		artifact, err := runner.Run(r.Context(), req.ObjectKey)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.TranslateResponse{
			TranslatedKey: artifact.Key,
			DownloadURL:   artifact.DownloadURL,
		})
	}
}

// UploadURL handles POST {"fileName": "...", "contentType": "..."}.
func UploadURL(issuer URLIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w, PostMethods)
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var req models.UploadURLRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		res, err := issuer.UploadURL(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// DownloadURL handles GET ?objectKey=translated/....
func DownloadURL(issuer URLIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w, GetMethods)
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		res, err := issuer.DownloadURL(r.Context(), r.URL.Query().Get("objectKey"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// InitFailed answers every request of a function whose clients could not be
// built. Preflights still succeed so browsers can read the error body.
func InitFailed(methods string, err error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w, methods)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		slog.Error("Critical error during function initialization", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Message: "Service failed to initialize.",
			Error:   string(services.KindInternal),
		})
	}
}

// UploadEvent decodes a GCS CloudEvent and hands it to h.
func UploadEvent(h EventHandler) func(context.Context, cloudevents.Event) error {
	return func(ctx context.Context, e cloudevents.Event) error {
		var gcsEvent models.GCSEvent
		if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
			slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
			return fmt.Errorf("json.Unmarshal: %w", err)
		}
		return h.Handle(ctx, gcsEvent)
	}
}

func setCORS(w http.ResponseWriter, methods string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Allow-Methods", methods)
}

// allowMethod answers preflight and wrong-method requests itself and reports
// whether the handler should continue.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	switch r.Method {
	case method:
		return true
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Message: "Method not allowed."})
	}
	return false
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	slog.Warn("Could not decode request body.", "error", err)
	return &services.ValidationError{Field: "request body", Reason: "must be valid JSON"}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrAccessDenied) {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Message: "Access denied"})
		return
	}

	kind := services.KindOf(err)
	if services.IsClientFault(err) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Message: err.Error(), Error: string(kind)})
		return
	}

	// The detail stays in the logs.
	slog.Error("Request failed.", "errorCode", kind, "error", err)
	writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Message: serverFaultMessages[kind], Error: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
