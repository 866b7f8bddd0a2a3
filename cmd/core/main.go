// Package main is the ReadNest core entry point. The core is a
// platform-agnostic persistence and sync layer that UI shells link
// against; running it standalone initializes the workspace and prints
// version information.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yctsai/readnest/internal/config"
	"github.com/yctsai/readnest/internal/logging"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("READNEST_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "readnest: %v\n", err)
		os.Exit(1)
	}

	logging.Init(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	log := logging.Get().WithComponent("core")

	app, err := newApp(cfg)
	if err != nil {
		log.Error("initializing workspace", err, nil)
		os.Exit(1)
	}
	defer app.Close()

	state, err := app.Coordinator.GetSyncStatus(context.Background())
	if err != nil {
		log.Error("reading sync state", err, nil)
		os.Exit(1)
	}

	fmt.Printf("ReadNest Core v%s\n", Version)
	log.Info("workspace ready", map[string]any{
		"data_dir":       cfg.DataDir,
		"remote":         cfg.Remote.BaseURL != "",
		"mirror_enabled": state.Enabled,
	})
}
