package experiment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/results"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, filepath.Join("dim_red", "output_2nodes_run1"), cfg.OutputDir())
	assert.Equal(t, 12*time.Hour, cfg.ReducerTimeout)
	assert.Equal(t, results.KeepLast, cfg.MergePolicy)
	assert.Equal(t, 5, cfg.PairwiseFeatures)
	assert.Equal(t, "python3", cfg.Python)
	assert.False(t, cfg.Standardize)
	assert.NoError(t, cfg.Validate())
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig(
		WithInputPath("/data/X.npy"),
		WithOutputRoot("/tmp/out"),
		WithRunID("run2"),
		WithReducerTimeout(0),
		WithMergePolicy(results.KeepFirst),
		WithStandardize(true),
		WithPairwiseFeatures(3),
		WithSeed(7),
		WithPython("/usr/bin/python3.11"),
		WithLogLevel("debug"),
	)

	assert.Equal(t, "/data/X.npy", cfg.InputPath)
	assert.Equal(t, filepath.Join("/tmp/out", "output_run2"), cfg.OutputDir())
	assert.Zero(t, cfg.ReducerTimeout)
	assert.Equal(t, results.KeepFirst, cfg.MergePolicy)
	assert.True(t, cfg.Standardize)
	assert.Equal(t, 3, cfg.PairwiseFeatures)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, "/usr/bin/python3.11", cfg.Python)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		param string
	}{
		{"empty input", WithInputPath(""), "input_path"},
		{"empty output root", WithOutputRoot(""), "output_root"},
		{"empty run id", WithRunID(""), "run_id"},
		{"nested run id", WithRunID("a/b"), "run_id"},
		{"parent run id", WithRunID(".."), "run_id"},
		{"negative timeout", WithReducerTimeout(-time.Second), "reducer_timeout"},
		{"unknown policy", WithMergePolicy(results.MergePolicy(9)), "merge_policy"},
		{"no pairwise features", WithPairwiseFeatures(0), "pairwise_features"},
		{"no python", WithPython(""), "python"},
		{"bad log level", WithLogLevel("verbose"), "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultConfig(tt.opt).Validate()
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.param, vErr.ParamName)
		})
	}
}

func TestNewRunContext(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"PCA_reduction_plot.png", "UMAP_reduction_plot.png", "Isomap_reduction_plot.png", "results.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "TriMap_reduction_plot.png"), 0o755))

	rc, err := NewRunContext(fs.Default, nil, dir, []string{"PCA", "TriMap", "t-SNE", "UMAP"})
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"PCA": true, "UMAP": true}, rc.Completed)
	assert.True(t, rc.IsCompleted("PCA"))
	assert.False(t, rc.IsCompleted("TriMap"))
	assert.False(t, rc.IsCompleted("Isomap"))
}

func TestNewRunContextMissingDirectory(t *testing.T) {
	rc, err := NewRunContext(fs.Default, nil, filepath.Join(t.TempDir(), "absent"), []string{"PCA"})
	require.NoError(t, err)
	assert.Empty(t, rc.Completed)
}
