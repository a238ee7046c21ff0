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
)

var (
	presigner *services.Presigner
	once      sync.Once
	initErr   error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleDownloadURL", handleDownloadURL)
}

// main is required by the Go Functions Framework.
func main() {}

func handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		config, err := services.LoadConfig()
		if err != nil {
			initErr = err
			return
		}
		presigner, initErr = services.NewPresignerFromEnv(context.Background(), config)
	})
	if initErr != nil {
		handlers.InitFailed(handlers.GetMethods, initErr).ServeHTTP(w, r)
		return
	}
	handlers.DownloadURL(presigner).ServeHTTP(w, r)
}
