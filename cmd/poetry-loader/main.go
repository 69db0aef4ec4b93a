// Command poetry-loader ingests a directory of poem JSON files into the
// configured store. Each file is applied in its own transaction; re-running
// over the same directory converges to the same store state.
//
// Flags:
//
//	--dir            input directory (overrides ingest config)
//	--exclude        comma-separated file names, extensions or globs to skip
//	--workers        number of files processed concurrently
//	--dry-run        parse and normalize files without writing to the store
//	--ingest-config  path to ingest YAML config file
//
// Exit codes: 0 = all files ingested, 1 = some files failed, 2 = run aborted.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/heartmarshall/poetry-loader/internal/app"
	"github.com/heartmarshall/poetry-loader/internal/app/ingest"
	"github.com/heartmarshall/poetry-loader/internal/config"
	"github.com/heartmarshall/poetry-loader/pkg/ctxutil"
)

func main() {
	os.Exit(run())
}

func run() int {
	dirFlag := flag.String("dir", "", "input directory of poem JSON files")
	excludeFlag := flag.String("exclude", "", "comma-separated names, extensions or globs to skip")
	workersFlag := flag.Int("workers", 0, "files processed concurrently (default from config)")
	dryRunFlag := flag.Bool("dry-run", false, "parse files without writing to the store")
	ingestConfigFlag := flag.String("ingest-config", "", "path to ingest YAML config file")
	flag.Parse()

	// Load app config (for store connection and logging).
	appCfg, err := config.Load()
	if err != nil {
		log.Printf("load app config: %v", err)
		return app.ExitAborted
	}

	logger := app.NewLogger(appCfg.Log, os.Stderr)

	ingestCfg, err := ingest.LoadConfig(*ingestConfigFlag)
	if err != nil {
		logger.Error("load ingest config", slog.String("error", err.Error()))
		return app.ExitAborted
	}

	// CLI flags override config.
	if *dirFlag != "" {
		ingestCfg.Dir = *dirFlag
	}
	if *excludeFlag != "" {
		ingestCfg.Exclude = splitList(*excludeFlag)
	}
	if *workersFlag > 0 {
		ingestCfg.Workers = *workersFlag
	}
	if *dryRunFlag {
		ingestCfg.DryRun = true
	}
	if ingestCfg.Dir == "" {
		logger.Error("input directory is required (--dir or INGEST_DIR)")
		return app.ExitAborted
	}

	runID := uuid.New()
	logger.Info("starting poetry-loader",
		slog.String("run_id", runID.String()),
		slog.String("version", app.BuildVersion()),
		slog.String("driver", appCfg.Database.Driver),
		slog.String("store", appCfg.Database.Redacted()),
		slog.String("dir", ingestCfg.Dir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, ingestCfg.Timeout)
	defer cancel()
	ctx = ctxutil.WithRunID(ctx, runID)

	store, err := app.OpenStore(ctx, appCfg.Database, logger)
	if err != nil {
		logger.Error("connect to store", slog.String("error", err.Error()))
		return app.ExitAborted
	}
	defer store.Close()

	report, err := app.Ingest(ctx, logger, store, *ingestCfg)
	code := app.ExitCode(report, err)

	switch code {
	case app.ExitAborted:
		logger.Error("run aborted", slog.String("error", err.Error()))
	case app.ExitUnitsFailed:
		for _, u := range report.Failed() {
			logger.Warn("unit failed", slog.String("unit", u.Unit), slog.String("error", u.Err.Error()))
		}
		logger.Warn("run completed with failed units", slog.Int("failed", len(report.Failed())))
	default:
		logger.Info("run completed successfully")
	}
	return code
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
