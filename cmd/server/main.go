package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/LeLongFintech/GULLIVER/internal/app"
)

func main() {
	ctx := context.Background()

	application, err := app.NewApplication(ctx)
	if err != nil {
		slog.Error("Failed to start application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
