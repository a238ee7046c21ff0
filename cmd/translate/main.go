package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/documenttranslator/internal/handlers"
	"github.com/Lllllllleong/documenttranslator/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	pipeline *services.Pipeline
	trigger  *services.UploadTrigger
	once     sync.Once
	initErr  error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleTranslate" is called by the frontend; "TranslateOnUpload" by GCS finalize events.
	functions.HTTP("HandleTranslate", handleTranslate)
	functions.CloudEvent("TranslateOnUpload", translateOnUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// initialize builds the clients once per instance.
func initialize() error {
	once.Do(func() {
		config, err := services.LoadConfig()
		if err != nil {
			initErr = err
			return
		}
		pipeline, initErr = services.NewPipelineFromEnv(context.Background(), config)
		if initErr == nil {
			trigger = services.NewUploadTrigger(pipeline, config.Bucket, config.UploadPrefix)
		}
	})
	return initErr
}

func handleTranslate(w http.ResponseWriter, r *http.Request) {
	if err := initialize(); err != nil {
		handlers.InitFailed(handlers.PostMethods, err).ServeHTTP(w, r)
		return
	}
	handlers.Translate(pipeline).ServeHTTP(w, r)
}

func translateOnUpload(ctx context.Context, e cloudevents.Event) error {
	if err := initialize(); err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		return err
	}
	return handlers.UploadEvent(trigger)(ctx, e)
}
