// Package dimred runs a batch of dimensionality-reduction methods over one
// large numeric dataset and records how long each takes.
//
// For every method the run writes a 2D scatter plot and appends a row to a
// CSV timing table. A method whose plot already exists in the output
// directory is skipped, so an interrupted run resumes where it stopped.
//
// # Methods
//
// Methods run in a fixed order:
//
//   - PCA, computed natively with gonum
//   - TriMap, PaCMAP, t-SNE and UMAP, computed by their Python packages
//     through a subprocess bridge that exchanges .npy files
//
// # Layout
//
//   - dataset: .npy loading and saving
//   - reducer: the method registry, native PCA and the Python bridge
//   - results: the CSV timing table and its merge policies
//   - visualize: scatter and pairwise-feature plots
//   - experiment: configuration and the run loop
//   - cmd/dimred: the program entry point
//
// # Quick Start
//
//	cfg := experiment.DefaultConfig(
//	    experiment.WithInputPath("X.npy"),
//	    experiment.WithOutputRoot("./dim_red"),
//	)
//	executed, err := experiment.Execute(ctx, cfg)
//	if err != nil {
//	    var redErr *errors.ReductionError
//	    if errors.As(err, &redErr) {
//	        log.Printf("%s failed", redErr.Reducer)
//	    }
//	}
//	for name, res := range executed {
//	    fmt.Printf("%s: %.2fs\n", name, res.Elapsed.Seconds())
//	}
//
// # Output
//
// The output directory (./dim_red/output_2nodes_run1 by default) holds:
//
//   - pairwise_features_plot.png, drawn once from up to 5 sampled features
//   - {Method}_reduction_plot.png per method
//   - results.csv with the header "Reducer,Time (seconds)"
package dimred
