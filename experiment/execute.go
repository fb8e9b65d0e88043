package experiment

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimred/dataset"
	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
	"github.com/YuminosukeSato/dimred/preprocessing"
	"github.com/YuminosukeSato/dimred/reducer"
)

// execution carries the collaborators Execute wires up. Tests replace them
// through RunOptions.
type execution struct {
	logger   log.Logger
	registry *reducer.Registry
	fs       fs.FileSystem
	runID    string
}

// RunOption customizes Execute.
type RunOption func(*execution)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l log.Logger) RunOption {
	return func(e *execution) { e.logger = l }
}

// WithRegistry replaces the standard reducer registry.
func WithRegistry(r *reducer.Registry) RunOption {
	return func(e *execution) { e.registry = r }
}

// WithFileSystem replaces the file system used for outputs.
func WithFileSystem(fsys fs.FileSystem) RunOption {
	return func(e *execution) { e.fs = fsys }
}

// WithSessionID fixes the per-invocation id logged as run.id.
func WithSessionID(id string) RunOption {
	return func(e *execution) { e.runID = id }
}

// Execute runs the whole program: validate cfg, create the output directory,
// load the dataset, draw the pairwise plot once, optionally standardize, and
// run every pending reducer.
func Execute(ctx context.Context, cfg Config, opts ...RunOption) (map[string]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &execution{
		logger: log.Default(),
		fs:     fs.Default,
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}

	outputDir := cfg.OutputDir()
	logger := e.logger.With(log.RunIDKey, e.runID, log.OutputDirKey, outputDir)
	if e.registry == nil {
		e.registry = reducer.Default(reducer.BridgeConfig{Python: cfg.Python, Logger: logger})
	}

	start := time.Now()
	logger.Info("Experiment started", "reducers", e.registry.Names())

	if err := e.fs.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.NewStorageError("create output directory", outputDir, err)
	}

	loader := dataset.NewLoader(logger)
	loader.FS = e.fs
	ds, err := loader.Load(cfg.InputPath)
	if err != nil {
		return nil, err
	}

	runner := NewRunner(cfg, e.registry, logger)
	runner.FS = e.fs
	runner.Sink.FS = e.fs
	runner.Store.FS = e.fs

	if _, err := runner.Sink.Pairwise(ds.Matrix(), filepath.Join(outputDir, PairwisePlotFile)); err != nil {
		return nil, err
	}

	if cfg.Standardize {
		scaled, err := preprocessing.NewStandardScalerDefault().FitTransform(ds.Matrix())
		if err != nil {
			return nil, errors.Wrap(err, "standardize dataset")
		}
		ds = dataset.New(mat.DenseCopyOf(scaled), ds.Path())
		logger.Info("Standardized features")
	}

	executed, err := runner.Run(ctx, ds)
	if err != nil {
		return executed, err
	}

	logger.Info("Experiment finished", log.DurationSecondsKey, time.Since(start).Seconds())
	return executed, nil
}
