package dataset

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

// Loader reads .npy files into Datasets.
type Loader struct {
	FS     fs.FileSystem
	Logger log.Logger
}

// NewLoader creates a Loader on the local file system.
func NewLoader(logger log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		FS:     fs.Default,
		Logger: logger.With(log.ComponentKey, "dataset"),
	}
}

// Load reads path with a default Loader.
func Load(path string) (*Dataset, error) {
	return NewLoader(nil).Load(path)
}

// Load reads a 2D numeric array from path.
//
// Only real numeric dtypes are accepted; object, string, bool and complex
// arrays are rejected. The array must be two-dimensional, non-empty and
// contain only finite values. Every failure is a LoadError.
func (l *Loader) Load(path string) (*Dataset, error) {
	l.Logger.Info("Loading data", log.PathKey, path, log.OperationKey, log.OperationLoad)

	f, err := l.FS.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.NewLoadError(path, "cannot open file", err)
	}
	defer f.Close()

	X, dtype, err := decode(f)
	if err != nil {
		return nil, errors.NewLoadError(path, "malformed array", err)
	}
	if err := errors.CheckMatrix("dataset", X); err != nil {
		return nil, errors.NewLoadError(path, "array contains non-finite values", err)
	}

	rows, cols := X.Dims()
	l.Logger.Info("Data loaded",
		log.PathKey, path,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.DataTypeKey, dtype,
	)
	return &Dataset{x: X, path: path, dtype: dtype}, nil
}

// Decode reads a 2D numeric .npy stream without logging or finiteness checks.
func Decode(r io.Reader) (*mat.Dense, error) {
	X, _, err := decode(r)
	return X, err
}

func decode(r io.Reader) (*mat.Dense, string, error) {
	npy, err := npyio.NewReader(r)
	if err != nil {
		return nil, "", err
	}

	descr := npy.Header.Descr
	if len(descr.Shape) != 2 {
		return nil, descr.Type, errors.Newf("expected a 2D array, got shape %v", descr.Shape)
	}
	rows, cols := descr.Shape[0], descr.Shape[1]
	if rows == 0 || cols == 0 {
		return nil, descr.Type, errors.Wrapf(errors.ErrEmptyData, "shape %v", descr.Shape)
	}

	data, err := readNumeric(npy, descr.Type, rows*cols)
	if err != nil {
		return nil, descr.Type, err
	}

	if descr.Fortran {
		// column-major on disk: the buffer is the transpose in row-major order
		return mat.DenseCopyOf(mat.NewDense(cols, rows, data).T()), descr.Type, nil
	}
	return mat.NewDense(rows, cols, data), descr.Type, nil
}

// readNumeric reads n elements of the given NumPy dtype and widens them to float64.
func readNumeric(r *npyio.Reader, dtype string, n int) ([]float64, error) {
	switch strings.TrimLeft(dtype, "<>|=") {
	case "f8":
		data := make([]float64, n)
		if err := r.Read(&data); err != nil {
			return nil, err
		}
		return data, nil
	case "f4":
		return widen[float32](r, n)
	case "i8":
		return widen[int64](r, n)
	case "i4":
		return widen[int32](r, n)
	case "i2":
		return widen[int16](r, n)
	case "i1":
		return widen[int8](r, n)
	case "u8":
		return widen[uint64](r, n)
	case "u4":
		return widen[uint32](r, n)
	case "u2":
		return widen[uint16](r, n)
	case "u1":
		return widen[uint8](r, n)
	default:
		return nil, errors.Newf("unsupported dtype %q: only real numeric arrays are accepted", dtype)
	}
}

type number interface {
	~float32 | ~int64 | ~int32 | ~int16 | ~int8 | ~uint64 | ~uint32 | ~uint16 | ~uint8
}

func widen[T number](r *npyio.Reader, n int) ([]float64, error) {
	raw := make([]T, n)
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

// Save writes X to path as a little-endian float64 .npy file.
func Save(fsys fs.FileSystem, path string, X mat.Matrix) error {
	var buf bytes.Buffer
	if err := Encode(&buf, X); err != nil {
		return errors.NewStorageError("encode array", path, err)
	}
	if err := fs.WriteFileAtomic(fsys, path, buf.Bytes(), 0o644); err != nil {
		return errors.NewStorageError("write array", path, err)
	}
	return nil
}

// Encode writes X in .npy format to w.
func Encode(w io.Writer, X mat.Matrix) error {
	return npyio.Write(w, mat.DenseCopyOf(X))
}
