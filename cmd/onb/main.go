package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	app "github.com/stampedhq/onboard/internal"
	"github.com/stampedhq/onboard/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	// A .env next to .onboardconfig may carry the screening API key.
	_ = godotenv.Load(filepath.Join(basePath, ".env"))

	a, err := app.NewApp(basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing onb: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
