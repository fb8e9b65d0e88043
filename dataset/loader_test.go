package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

func writeNpy(t *testing.T, path string, v interface{}) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, npyio.Write(&buf, v))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.npy")

	X := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	require.NoError(t, Save(fs.Default, path, X))

	logger, _ := log.NewTestLogger(log.LevelDebug)
	loader := NewLoader(logger)
	ds, err := loader.Load(path)
	require.NoError(t, err)

	rows, cols := ds.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.True(t, mat.Equal(X, ds.Matrix()))
	assert.Equal(t, path, ds.Path())
	assert.Equal(t, []float64{2, 4, 6}, ds.Column(1))

	assert.True(t, logger.ContainsMessage("Loading data"))
	assert.True(t, logger.ContainsMessage("Data loaded"))
	assert.True(t, logger.ContainsField(log.SamplesKey, float64(3)))
}

// rawNpy builds a version 1.0 .npy file by hand so that dtypes and memory
// orders other than the ones npyio.Write produces can be exercised.
func rawNpy(descr string, fortran bool, rows, cols int, data []byte) []byte {
	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%d, %d), }", descr, order, rows, cols)
	// magic(6) + version(2) + header length(2) + header + '\n' must align to 64 bytes
	pad := 64 - (10+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

func TestLoadDTypes(t *testing.T) {
	le := func(v interface{}) []byte {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.LittleEndian, v)
		return buf.Bytes()
	}

	tests := []struct {
		name    string
		descr   string
		fortran bool
		data    []byte
		want    []float64
	}{
		{"int32", "<i4", false, le([]int32{1, -2, 3, 4}), []float64{1, -2, 3, 4}},
		{"float32", "<f4", false, le([]float32{0.5, 1.5, 2.5, 3.5}), []float64{0.5, 1.5, 2.5, 3.5}},
		{"uint8", "|u1", false, []byte{1, 2, 3, 255}, []float64{1, 2, 3, 255}},
		{"int64", "<i8", false, le([]int64{10, 20, 30, 40}), []float64{10, 20, 30, 40}},
		// column-major storage of [[1 2] [3 4]]
		{"fortran order", "<f8", true, le([]float64{1, 3, 2, 4}), []float64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.npy")
			require.NoError(t, os.WriteFile(path, rawNpy(tt.descr, tt.fortran, 2, 2, tt.data), 0o644))

			ds, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.descr, ds.DType())
			assert.Equal(t, tt.want, mat.DenseCopyOf(ds.Matrix()).RawMatrix().Data)
		})
	}
}

func TestLoadRejectsNonNumeric(t *testing.T) {
	tests := []struct {
		name  string
		descr string
		data  []byte
	}{
		{"bool", "|b1", []byte{1, 0, 1, 0}},
		{"complex", "<c8", make([]byte, 32)},
		{"unicode", "<U1", make([]byte, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.npy")
			require.NoError(t, os.WriteFile(path, rawNpy(tt.descr, false, 2, 2, tt.data), 0o644))

			_, err := Load(path)
			var loadErr *errors.LoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
		})
	}
}

func TestLoadRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.npy")
	require.NoError(t, os.WriteFile(path, rawNpy("<f8", false, 0, 3, nil), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	oneD := filepath.Join(dir, "vector.npy")
	writeNpy(t, oneD, []float64{1, 2, 3})

	nonFinite := filepath.Join(dir, "nan.npy")
	writeNpy(t, nonFinite, mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4}))

	garbage := filepath.Join(dir, "garbage.npy")
	require.NoError(t, os.WriteFile(garbage, []byte("not a numpy file"), 0o644))

	tests := []struct {
		name   string
		path   string
		reason string
	}{
		{"missing file", filepath.Join(dir, "missing.npy"), "cannot open file"},
		{"one dimensional", oneD, "malformed array"},
		{"non-finite values", nonFinite, "array contains non-finite values"},
		{"not npy", garbage, "malformed array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)

			var loadErr *errors.LoadError
			require.True(t, errors.As(err, &loadErr), "got %T", err)
			assert.Equal(t, tt.path, loadErr.Path)
			assert.Equal(t, tt.reason, loadErr.Reason)
		})
	}
}

func TestSaveStorageError(t *testing.T) {
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	faulty.FailWrites("data.npy")

	err := Save(faulty, filepath.Join(dir, "data.npy"), mat.NewDense(1, 2, []float64{1, 2}))
	require.Error(t, err)

	var storageErr *errors.StorageError
	assert.True(t, errors.As(err, &storageErr))

	exists, err := fs.Exists(fs.Default, filepath.Join(dir, "data.npy"))
	require.NoError(t, err)
	assert.False(t, exists)
}
