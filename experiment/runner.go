// Package experiment runs every registered reducer over one dataset, writing a
// scatter plot and a timing row per reducer. Reducers whose plot already
// exists in the output directory are skipped, so an interrupted run can be
// resumed by invoking it again.
package experiment

import (
	"context"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimred/dataset"
	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
	"github.com/YuminosukeSato/dimred/reducer"
	"github.com/YuminosukeSato/dimred/results"
	"github.com/YuminosukeSato/dimred/visualize"
)

// embeddingDims is the width every reducer must produce.
const embeddingDims = 2

// Result is the outcome of one reducer executed in this run.
type Result struct {
	Name      string
	Embedding mat.Matrix
	Elapsed   time.Duration
}

// Runner executes the registry against a dataset.
type Runner struct {
	Registry  *reducer.Registry
	Sink      *visualize.Sink
	Store     *results.Store
	FS        fs.FileSystem
	OutputDir string

	// Timeout bounds each reducer. Zero disables it.
	Timeout time.Duration

	Logger log.Logger
}

// NewRunner wires a Runner for cfg on the local file system.
func NewRunner(cfg Config, registry *reducer.Registry, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	sink := visualize.NewSink(logger).WithSeed(cfg.Seed)
	sink.PairwiseFeatures = cfg.PairwiseFeatures
	return &Runner{
		Registry:  registry,
		Sink:      sink,
		Store:     results.NewStore(cfg.MergePolicy, logger),
		FS:        fs.Default,
		OutputDir: cfg.OutputDir(),
		Timeout:   cfg.ReducerTimeout,
		Logger:    logger.With(log.ComponentKey, "experiment"),
	}
}

// ResultsPath is the results table inside the output directory.
func (r *Runner) ResultsPath() string {
	return filepath.Join(r.OutputDir, ResultsFile)
}

// PlotPath is the plot file for reducer name.
func (r *Runner) PlotPath(name string) string {
	return filepath.Join(r.OutputDir, PlotFileName(name))
}

// Run executes every reducer that has no plot yet, in registry order. The
// returned map holds only reducers executed by this call. The first error
// stops the run; results gathered before it are returned alongside it.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset) (map[string]Result, error) {
	rc, err := NewRunContext(r.FS, ds, r.OutputDir, r.Registry.Names())
	if err != nil {
		return nil, err
	}

	rows, cols := ds.Dims()
	r.Logger.Info("Starting dimensionality reduction experiments",
		log.OutputDirKey, r.OutputDir,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"completed", len(rc.Completed),
	)

	executed := make(map[string]Result)
	var timings []results.Record

	for _, spec := range r.Registry.List() {
		if err := ctx.Err(); err != nil {
			return executed, errors.Wrap(err, "experiment interrupted")
		}
		if rc.IsCompleted(spec.Name) {
			r.Logger.Info("Skipping reducer: plot already exists",
				log.ReducerKey, spec.Name,
				log.PathKey, r.PlotPath(spec.Name),
			)
			continue
		}

		res, err := r.execute(ctx, spec, rc.Dataset.Matrix())
		if err != nil {
			return executed, err
		}
		executed[spec.Name] = res

		if err := r.PlotResult(res); err != nil {
			return executed, err
		}

		timings = append(timings, results.Record{Reducer: res.Name, Seconds: res.Elapsed.Seconds()})
		if _, err := r.Store.MergeAndWrite(timings, r.ResultsPath()); err != nil {
			return executed, err
		}
	}

	r.Logger.Info("All reducers processed", "executed", len(executed))
	return executed, nil
}

// PlotResult writes the scatter plot for res, replacing any existing one.
func (r *Runner) PlotResult(res Result) error {
	return r.Sink.Scatter(res.Embedding, res.Name+" Reduction", r.PlotPath(res.Name))
}

type outcome struct {
	embedding mat.Matrix
	err       error
}

// execute runs one reducer on its own goroutine so that cancellation and the
// per-reducer deadline are honored even if the reducer ignores ctx.
func (r *Runner) execute(ctx context.Context, spec reducer.Spec, X mat.Matrix) (Result, error) {
	logger := r.Logger.With(log.ReducerKey, spec.Name)
	logger.Info("Running reducer", log.HyperParamsKey, spec.Params, log.OperationKey, log.OperationFitTransform)

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	red := spec.Reducer()
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		var emb mat.Matrix
		err := errors.SafeExecute(spec.Name+".FitTransform", func() error {
			var err error
			emb, err = red.FitTransform(runCtx, X)
			return err
		})
		done <- outcome{embedding: emb, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-runCtx.Done():
		out.err = runCtx.Err()
	}
	elapsed := time.Since(start)

	if out.err != nil {
		err := out.err
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = errors.Mark(errors.Wrapf(err, "exceeded %s", r.Timeout), errors.ErrTimeout)
		}
		err = errors.NewReductionError(spec.Name, err)
		logger.Error("Reduction failed", err, log.ErrorCodeKey, log.ErrorReduction)
		return Result{}, err
	}

	rows, _ := X.Dims()
	if err := checkEmbedding(out.embedding, rows); err != nil {
		err = errors.NewReductionError(spec.Name, err)
		logger.Error("Reducer returned an invalid embedding", err, log.ErrorCodeKey, log.ErrorReduction)
		return Result{}, err
	}

	logger.Info("Reduction completed", log.DurationSecondsKey, elapsed.Seconds())
	return Result{Name: spec.Name, Embedding: out.embedding, Elapsed: elapsed}, nil
}

// checkEmbedding enforces the (n_samples, 2) finite output contract.
func checkEmbedding(emb mat.Matrix, samples int) error {
	if emb == nil {
		return errors.New("reducer returned no embedding")
	}
	rows, cols := emb.Dims()
	if cols != embeddingDims {
		return errors.NewDimensionError("FitTransform", embeddingDims, cols, 1)
	}
	if rows != samples {
		return errors.NewDimensionError("FitTransform", samples, rows, 0)
	}
	return errors.CheckMatrix("embedding", emb)
}
