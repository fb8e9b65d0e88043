// Package dataset loads the experiment's input matrix from NumPy .npy files.
package dataset

import (
	"gonum.org/v1/gonum/mat"
)

// Dataset is a dense (n_samples × n_features) matrix loaded once per run.
// It is never mutated after construction; Matrix returns it as a read-only
// mat.Matrix.
type Dataset struct {
	x     *mat.Dense
	path  string
	dtype string
}

// New wraps X. The caller must not modify X afterwards.
func New(X *mat.Dense, path string) *Dataset {
	return &Dataset{x: X, path: path, dtype: "<f8"}
}

// Matrix returns the data as a read-only matrix.
func (d *Dataset) Matrix() mat.Matrix {
	return d.x
}

// Dims returns (n_samples, n_features).
func (d *Dataset) Dims() (int, int) {
	return d.x.Dims()
}

// Path returns the file the dataset was loaded from.
func (d *Dataset) Path() string {
	return d.path
}

// DType returns the element type stored in the source file.
func (d *Dataset) DType() string {
	return d.dtype
}

// Column returns a copy of column j.
func (d *Dataset) Column(j int) []float64 {
	return mat.Col(nil, j, d.x)
}
