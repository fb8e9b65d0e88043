// Package log defines standard attribute keys for dimred operations.
//
// Using these keys keeps the run log consistent across the loader, the
// reducers, the plot sink and the result store, so that a run can be filtered
// by reducer name or by output path.
//
// The keys follow a hierarchical naming convention (e.g. "reducer.name",
// "data.samples").

package log

// Run and Operation Context
const (
	// RunIDKey identifies one invocation of the experiment runner.
	// A fresh UUID is generated per invocation; the output directory id is
	// logged separately under OutputDirKey.
	RunIDKey = "run.id"

	// ReducerKey identifies the dimensionality-reduction algorithm.
	// Examples: "PCA", "TriMap", "PaCMAP", "t-SNE", "UMAP"
	ReducerKey = "reducer.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "load", "fit_transform", "scatter", "pairwise", "merge"
	OperationKey = "op.name"

	// ComponentKey identifies which package is emitting the record.
	// Examples: "dataset", "reducer", "results", "visualize", "experiment"
	ComponentKey = "op.component"

	// HyperParamsKey contains reducer hyperparameters.
	HyperParamsKey = "reducer.hyperparams"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// DataTypeKey specifies the stored element type of the input array.
	// Examples: "<f8", "<f4", "<i8"
	DataTypeKey = "data.type"

	// RowsKey indicates the number of rows written to a results table.
	RowsKey = "table.rows"
)

// Files
const (
	// PathKey is the file the operation reads or writes.
	PathKey = "io.path"

	// OutputDirKey is the run's output directory.
	OutputDirKey = "io.output_dir"
)

// Performance Metrics
const (
	// DurationSecondsKey records the execution time in seconds.
	// Reductions on large inputs take minutes to hours.
	DurationSecondsKey = "perf.duration_seconds"

	// DurationMsKey records short execution times in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ExplainedVarianceKey records PCA component variances.
	ExplainedVarianceKey = "metrics.explained_variance"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving an issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationLoad         = "load"
	OperationFitTransform = "fit_transform"
	OperationScatter      = "scatter"
	OperationPairwise     = "pairwise"
	OperationMerge        = "merge"

	ErrorLoad      = "LOAD_FAILED"
	ErrorReduction = "REDUCTION_FAILED"
	ErrorStorage   = "STORAGE_FAILED"
)
