package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/internal/server"
)

var (
	servePort      int
	servePresetDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve presets and rendered strikes over HTTP",
	Long: `Start an HTTP server that describes presets and renders strikes on
request.

Routes:
  GET /health
  GET /presets
  GET /presets/{name}               modes with Q at ?sample_rate=
  GET /presets/{name}/strike.wav    ?strikes=&interval=&tail=&seed=&sample_rate=

{name} is glass, a shape (string, bar, ring; tuned with ?fundamental=,
?modes=, ?decay=, ?damping=) or a JSON file in --preset-dir.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&servePresetDir, "preset-dir", "", "Directory of additional <name>.json presets")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := server.DefaultConfig()
	cfg.Port = servePort
	cfg.PresetDir = servePresetDir
	if cfg.PresetDir != "" {
		if st, err := os.Stat(cfg.PresetDir); err != nil || !st.IsDir() {
			return fmt.Errorf("preset directory not found: %s", cfg.PresetDir)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n  modal server running at: http://localhost:%d\n\n", cfg.Port)
	return server.New(cfg).Run(ctx)
}
