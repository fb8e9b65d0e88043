// Command dimred runs PCA, TriMap, PaCMAP, t-SNE and UMAP over the
// configured dataset and writes one scatter plot per method plus a timing
// table. Run it again to resume after an interruption.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/dimred/experiment"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := experiment.DefaultConfig()

	// ログのセットアップ
	logger, err := log.SetupLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dimred: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := experiment.Execute(ctx, cfg, experiment.WithLogger(logger)); err != nil {
		logger.Error("Experiment failed", err)
		return 1
	}
	return 0
}
