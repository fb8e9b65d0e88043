package experiment

import (
	"io/fs"

	"github.com/YuminosukeSato/dimred/dataset"
	dfs "github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
)

// RunContext is the state a run starts from. Completed is computed once
// by scanning OutputDir; a reducer is completed iff its plot file exists.
type RunContext struct {
	Dataset   *dataset.Dataset
	OutputDir string
	Completed map[string]bool
}

// NewRunContext scans outputDir for the plot files of names. A missing
// directory means nothing has completed yet.
func NewRunContext(fsys dfs.FileSystem, ds *dataset.Dataset, outputDir string, names []string) (*RunContext, error) {
	rc := &RunContext{
		Dataset:   ds,
		OutputDir: outputDir,
		Completed: make(map[string]bool, len(names)),
	}

	entries, err := fsys.ReadDir(outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return rc, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("scan output directory", outputDir, err)
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			present[e.Name()] = true
		}
	}
	for _, name := range names {
		if present[PlotFileName(name)] {
			rc.Completed[name] = true
		}
	}
	return rc, nil
}

// IsCompleted reports whether name already has a plot in OutputDir.
func (rc *RunContext) IsCompleted(name string) bool {
	return rc.Completed[name]
}
