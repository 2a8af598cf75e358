package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"

	"github.com/dshills/schemaprobe/internal/config"
	"github.com/dshills/schemaprobe/internal/mcp"
	"github.com/dshills/schemaprobe/internal/probe"
	"github.com/dshills/schemaprobe/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := "run"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "--version", "version":
		fmt.Printf("schemaprobe\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		return 0
	case "run", "serve":
	default:
		fmt.Fprintf(os.Stderr, "usage: schemaprobe [--version] [run|serve]\n")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "schemaprobe: %v\n", err)
		return 2
	}
	log := cfg.Logger()
	log.Info("starting", "version", version, "command", cmd,
		"buildMode", storage.BuildMode, "driver", storage.DriverName, "endpoint", cfg.Endpoint)

	// Set up graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == "serve" {
		err = serve(ctx, cfg, log)
	} else {
		err = runScenarios(ctx, cfg, log)
	}
	if err != nil {
		log.Error(err, "schemaprobe failed")
		return 1
	}
	return 0
}

// serve runs the MCP server on stdio until it exits or a signal arrives
func serve(ctx context.Context, cfg *config.Config, log logr.Logger) error {
	server, err := mcp.NewServer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("received signal, shutting down")
		return server.Close()
	case err := <-errChan:
		return err
	}
}

// runScenarios runs every configured scenario in order against one
// client. Every scenario runs even after an earlier one failed.
func runScenarios(ctx context.Context, cfg *config.Config, log logr.Logger) error {
	scenarios, err := cfg.ScenarioList()
	if err != nil {
		return err
	}

	client, err := storage.Open(ctx, cfg.StorageConfig(), log)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	p := probe.New(client, log)
	var errs []error
	for _, scenario := range scenarios {
		opts, err := cfg.ProbeOptions(scenario)
		if err != nil {
			return err
		}

		report, err := p.Run(ctx, opts)
		if report == nil {
			return err
		}
		log.Info("report", summaryValues(report.Summary())...)

		if err := report.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", scenario, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

// summaryValues flattens a summary map into logr key/value pairs
func summaryValues(summary map[string]interface{}) []interface{} {
	keys := []string{
		"scenario", "run_id", "passed", "classes_created", "classes_skipped",
		"properties_created", "properties_skipped", "checks_succeeded",
		"checks_failed", "checks_skipped", "tasks_finished", "duration_ms",
		"mutation_error", "failures",
	}
	kv := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		if v, ok := summary[k]; ok {
			kv = append(kv, k, v)
		}
	}
	return kv
}
