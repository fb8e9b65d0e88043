package reducer

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimred/core/model"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

func randomMatrix(rows, cols int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(rows, cols, data)
}

func TestDefaultRegistry(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	r := Default(BridgeConfig{Logger: logger})

	assert.Equal(t, []string{"PCA", "TriMap", "PaCMAP", "t-SNE", "UMAP"}, r.Names())
	assert.Equal(t, 5, r.Len())

	tsne, ok := r.Lookup(NameTSNE)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"n_components": 2, "perplexity": 50, "n_iter": 500}, tsne.Params)

	pacmap, ok := r.Lookup(NamePaCMAP)
	require.True(t, ok)
	assert.Equal(t, 10, pacmap.Params["n_neighbors"])
	assert.Equal(t, 0.5, pacmap.Params["MN_ratio"])
	assert.Equal(t, 2.0, pacmap.Params["FP_ratio"])

	_, ok = r.Lookup("Isomap")
	assert.False(t, ok)

	for _, s := range r.List() {
		assert.Equal(t, s.Name, s.Reducer().Name())
	}
}

func TestNewRegistryValidation(t *testing.T) {
	stub := func(map[string]any) model.Reducer { return nil }

	tests := []struct {
		name  string
		specs []Spec
	}{
		{"duplicate", []Spec{{Name: "A", New: stub}, {Name: "A", New: stub}}},
		{"empty name", []Spec{{Name: "", New: stub}}},
		{"nil constructor", []Spec{{Name: "A"}}},
		{"nested name", []Spec{{Name: "../UMAP", New: stub}}},
		{"backslash name", []Spec{{Name: `a\b`, New: stub}}},
		{"parent name", []Spec{{Name: "..", New: stub}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.specs...)
			var vErr *errors.ValidationError
			assert.True(t, errors.As(err, &vErr), "got %v", err)
		})
	}
}

func TestRegistryListIsACopy(t *testing.T) {
	stub := func(map[string]any) model.Reducer { return nil }
	r, err := NewRegistry(Spec{Name: "A", New: stub}, Spec{Name: "B", New: stub})
	require.NoError(t, err)

	list := r.List()
	list[0].Name = "mutated"
	assert.Equal(t, []string{"A", "B"}, r.Names())
}

func TestPCA(t *testing.T) {
	X := randomMatrix(500, 20, 1)
	pca := NewPCA(2, nil)

	emb, err := pca.FitTransform(context.Background(), X)
	require.NoError(t, err)

	rows, cols := emb.Dims()
	assert.Equal(t, 500, rows)
	assert.Equal(t, 2, cols)
	assert.True(t, pca.IsFitted())
	assert.Equal(t, 20, pca.NFeatures)

	// 射影は中心化されている
	for j := 0; j < 2; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += emb.At(i, j)
		}
		assert.InDelta(t, 0, sum/float64(rows), 1e-9)
	}

	// 第1主成分の分散が最大
	require.Len(t, pca.ExplainedVariance, 2)
	assert.GreaterOrEqual(t, pca.ExplainedVariance[0], pca.ExplainedVariance[1])
	assert.Greater(t, pca.ExplainedVarianceRatio[0], 0.0)
}

func TestPCARecoversDominantAxis(t *testing.T) {
	// 点は x 軸上に広がり、y 方向はわずかなノイズのみ
	X := mat.NewDense(6, 2, []float64{
		-3, 0.01,
		-2, -0.01,
		-1, 0.02,
		1, -0.02,
		2, 0.01,
		3, -0.01,
	})
	pca := NewPCA(1, nil)
	_, err := pca.FitTransform(context.Background(), X)
	require.NoError(t, err)

	assert.InDelta(t, 1, math.Abs(pca.Components.At(0, 0)), 1e-3)
}

func TestPCAErrors(t *testing.T) {
	t.Run("too few features", func(t *testing.T) {
		_, err := NewPCA(2, nil).FitTransform(context.Background(), mat.NewDense(5, 1, nil))
		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 1, dimErr.Axis)
	})

	t.Run("too few samples", func(t *testing.T) {
		_, err := NewPCA(2, nil).FitTransform(context.Background(), mat.NewDense(1, 4, nil))
		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 0, dimErr.Axis)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewPCA(2, nil).FitTransform(ctx, randomMatrix(10, 3, 2))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// corruptMatrix panics on element access, like a view over a released buffer.
type corruptMatrix struct{ rows, cols int }

func (m corruptMatrix) Dims() (int, int)   { return m.rows, m.cols }
func (m corruptMatrix) At(_, _ int) float64 { panic("buffer released") }
func (m corruptMatrix) T() mat.Matrix       { return mat.Transpose{Matrix: m} }

func TestPCAConvertsPanics(t *testing.T) {
	_, err := NewPCA(2, nil).FitTransform(context.Background(), corruptMatrix{rows: 4, cols: 3})

	var panicErr *errors.PanicError
	require.True(t, errors.As(err, &panicErr), "got %v", err)
	assert.Equal(t, "PCA.FitTransform", panicErr.Operation)
	assert.Equal(t, "buffer released", panicErr.PanicValue)
}

// fakePython writes an executable shell script that stands in for the
// interpreter. It is invoked as: <script> -c <code> in.npy out.npy params.
func fakePython(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestBridgeRoundTrip(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	python := fakePython(t, `echo "fitting" >&2
cp "$3" "$4"`)

	b := NewBridge("Echo", umapScript, map[string]any{"n_components": 2}, BridgeConfig{
		Python:  python,
		TempDir: t.TempDir(),
		Logger:  logger,
	})
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	emb, err := b.FitTransform(context.Background(), X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(X, emb))
	assert.Equal(t, "Echo", b.Name())

	// stderr is forwarded to the debug log
	assert.True(t, logger.ContainsMessage("fitting"))
}

func TestBridgeFailureCarriesStderr(t *testing.T) {
	python := fakePython(t, `echo "ModuleNotFoundError: No module named 'umap'" >&2
exit 3`)

	b := NewBridge(NameUMAP, umapScript, nil, BridgeConfig{Python: python, TempDir: t.TempDir()})
	_, err := b.FitTransform(context.Background(), mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No module named 'umap'")
}

func TestBridgeMissingOutput(t *testing.T) {
	python := fakePython(t, "exit 0")

	b := NewBridge(NameTriMap, trimapScript, nil, BridgeConfig{Python: python, TempDir: t.TempDir()})
	_, err := b.FitTransform(context.Background(), mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no embedding")
}

func TestBridgeDeadlineKillsProcess(t *testing.T) {
	python := fakePython(t, "exec sleep 30")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	b := NewBridge(NameTSNE, tsneScript, nil, BridgeConfig{Python: python, TempDir: t.TempDir()})
	start := time.Now()
	_, err := b.FitTransform(ctx, mat.NewDense(2, 2, []float64{1, 2, 3, 4}))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestBridgeDeadlineWithLingeringChild(t *testing.T) {
	// the background sleep inherits stdout and survives the kill
	python := fakePython(t, "sleep 30 &\nsleep 30")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	b := NewBridge(NameUMAP, umapScript, nil, BridgeConfig{
		Python:    python,
		TempDir:   t.TempDir(),
		WaitDelay: 300 * time.Millisecond,
	})
	start := time.Now()
	_, err := b.FitTransform(ctx, mat.NewDense(2, 2, []float64{1, 2, 3, 4}))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestBridgeMissingInterpreter(t *testing.T) {
	b := NewBridge(NamePaCMAP, pacmapScript, nil, BridgeConfig{
		Python:  filepath.Join(t.TempDir(), "no-such-python"),
		TempDir: t.TempDir(),
	})
	_, err := b.FitTransform(context.Background(), mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	assert.Error(t, err)
}
