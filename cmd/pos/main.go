package main

import (
	"log/slog"
	"os"

	"github.com/odyssey-erp/odyssey-pos/cmd/pos/cli"
	"github.com/odyssey-erp/odyssey-pos/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
