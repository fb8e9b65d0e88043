package experiment

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
	"github.com/YuminosukeSato/dimred/reducer"
	"github.com/YuminosukeSato/dimred/results"
	"github.com/YuminosukeSato/dimred/visualize"
)

// Compiled-in defaults.
const (
	DefaultInputPath      = "/net/pr2/projects/plgrid/plgglscclass/geometricus_embeddings/X_concatenated_all_dims.npy"
	DefaultOutputRoot     = "./dim_red"
	DefaultRunID          = "2nodes_run1"
	DefaultReducerTimeout = 12 * time.Hour
	DefaultLogLevel       = "info"
)

// Output file names inside the run directory.
const (
	PairwisePlotFile = "pairwise_features_plot.png"
	ResultsFile      = "results.csv"
	plotFileSuffix   = "_reduction_plot.png"
)

// PlotFileName returns the plot file that marks reducer name as completed.
func PlotFileName(name string) string {
	return name + plotFileSuffix
}

// Config holds everything the experiment needs. There are no flags or
// environment variables; values come from DefaultConfig and Options.
type Config struct {
	InputPath  string
	OutputRoot string
	RunID      string

	// ReducerTimeout bounds a single reducer. Zero disables the deadline.
	ReducerTimeout time.Duration

	MergePolicy results.MergePolicy

	// Standardize scales features to zero mean and unit variance before
	// reduction. The pairwise plot always shows raw features.
	Standardize bool

	PairwiseFeatures int

	// Seed makes the pairwise column sample reproducible. Zero means random.
	Seed uint64

	Python   string
	LogLevel string
}

// Option modifies a Config.
type Option func(*Config)

// DefaultConfig returns the compiled-in configuration.
func DefaultConfig(opts ...Option) Config {
	cfg := Config{
		InputPath:        DefaultInputPath,
		OutputRoot:       DefaultOutputRoot,
		RunID:            DefaultRunID,
		ReducerTimeout:   DefaultReducerTimeout,
		MergePolicy:      results.KeepLast,
		PairwiseFeatures: visualize.DefaultPairwiseFeatures,
		Python:           reducer.DefaultPython,
		LogLevel:         DefaultLogLevel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithInputPath sets the .npy file to load.
func WithInputPath(path string) Option {
	return func(c *Config) { c.InputPath = path }
}

// WithOutputRoot sets the directory that holds output_<RunID>.
func WithOutputRoot(root string) Option {
	return func(c *Config) { c.OutputRoot = root }
}

// WithRunID sets the run identifier used in the output directory name.
func WithRunID(id string) Option {
	return func(c *Config) { c.RunID = id }
}

// WithReducerTimeout sets the per-reducer deadline. Zero disables it.
func WithReducerTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReducerTimeout = d }
}

// WithMergePolicy sets how duplicate reducer rows in the results table are resolved.
func WithMergePolicy(p results.MergePolicy) Option {
	return func(c *Config) { c.MergePolicy = p }
}

// WithStandardize enables z-score standardization before the reducers run.
func WithStandardize(enabled bool) Option {
	return func(c *Config) { c.Standardize = enabled }
}

// WithPairwiseFeatures sets the maximum number of features in the pairwise plot.
func WithPairwiseFeatures(n int) Option {
	return func(c *Config) { c.PairwiseFeatures = n }
}

// WithSeed fixes the pairwise feature sample. Zero means random.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithPython sets the interpreter for the bridged reducers.
func WithPython(python string) Option {
	return func(c *Config) { c.Python = python }
}

// WithLogLevel sets the log level (debug, info, warn or error).
func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// OutputDir is <OutputRoot>/output_<RunID>.
func (c Config) OutputDir() string {
	return filepath.Join(c.OutputRoot, "output_"+c.RunID)
}

// Validate reports the first invalid field as a ValidationError.
func (c Config) Validate() error {
	switch {
	case c.InputPath == "":
		return errors.NewValidationError("input_path", "must not be empty", c.InputPath)
	case c.OutputRoot == "":
		return errors.NewValidationError("output_root", "must not be empty", c.OutputRoot)
	case c.RunID == "":
		return errors.NewValidationError("run_id", "must not be empty", c.RunID)
	case strings.ContainsAny(c.RunID, `/\`) || c.RunID == "." || c.RunID == "..":
		return errors.NewValidationError("run_id", "must be a single path element", c.RunID)
	case c.ReducerTimeout < 0:
		return errors.NewValidationError("reducer_timeout", "must not be negative", c.ReducerTimeout)
	case c.MergePolicy < results.KeepLast || c.MergePolicy > results.ErrorOnConflict:
		return errors.NewValidationError("merge_policy", "unknown policy", int(c.MergePolicy))
	case c.PairwiseFeatures < 1:
		return errors.NewValidationError("pairwise_features", "must be at least 1", c.PairwiseFeatures)
	case c.Python == "":
		return errors.NewValidationError("python", "must not be empty", c.Python)
	}
	if _, err := log.ToLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
