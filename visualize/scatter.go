package visualize

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/YuminosukeSato/dimred/core/parallel"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

// Scatter plots each row of a two-column matrix as a point and writes a PNG
// to path, overwriting any existing file.
func (s *Sink) Scatter(points mat.Matrix, title, path string) error {
	rows, cols := points.Dims()
	if cols != 2 {
		return errors.NewDimensionError("Scatter", 2, cols, 1)
	}
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Scatter")
	}

	p, err := s.scatterPlot(points, title)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(s.Width, s.Height, "png")
	if err != nil {
		return errors.NewStorageError("render plot", path, err)
	}
	s.Logger.Debug("Rendering scatter plot", log.OperationKey, log.OperationScatter, log.SamplesKey, rows)
	return s.save(path, wt)
}

func (s *Sink) scatterPlot(points mat.Matrix, title string) (*plot.Plot, error) {
	rows, _ := points.Dims()
	xys := make(plotter.XYs, rows)
	parallel.ParallelizeWithThreshold(rows, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			xys[i].X = points.At(i, 0)
			xys[i].Y = points.At(i, 1)
		}
	})

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, errors.Wrap(err, "Scatter")
	}
	sc.GlyphStyle = scatterGlyph

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Component 1"
	p.Y.Label.Text = "Component 2"
	p.Add(sc)
	return p, nil
}
