package visualize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

const histogramBins = 20

// Pairwise renders a scatter matrix of min(PairwiseFeatures, n_features)
// randomly sampled columns of X: histograms on the diagonal, pairwise
// scatters elsewhere. It does nothing if path already exists, so the
// sample is drawn once per output directory.
func (s *Sink) Pairwise(X mat.Matrix, path string) (bool, error) {
	exists, err := fs.Exists(s.FS, path)
	if err != nil {
		return false, errors.NewStorageError("stat plot", path, err)
	}
	if exists {
		s.Logger.Info("Skipping pairwise plot: file already exists", log.PathKey, path)
		return false, nil
	}

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return false, errors.Wrap(errors.ErrEmptyData, "Pairwise")
	}

	k := min(s.PairwiseFeatures, cols)
	if k < 1 {
		return false, errors.NewValidationError("pairwise_features", "must be positive", s.PairwiseFeatures)
	}
	idxs := make([]int, k)
	sampleuv.WithoutReplacement(idxs, cols, s.Src)

	columns := make([][]float64, k)
	for i, j := range idxs {
		columns[i] = mat.Col(nil, j, X)
	}
	s.Logger.Debug("Sampled pairwise features",
		log.OperationKey, log.OperationPairwise,
		"columns", idxs,
	)

	plots, err := pairGrid(columns)
	if err != nil {
		return false, err
	}

	size := vg.Length(k) * s.PanelSize
	img := vgimg.New(size, size)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      k,
		Cols:      k,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	if err := s.save(path, vgimg.PngCanvas{Canvas: img}); err != nil {
		return false, err
	}
	return true, nil
}

// pairGrid builds the k×k panels. Row i plots feature i on the y axis,
// column j plots feature j on the x axis.
func pairGrid(columns [][]float64) ([][]*plot.Plot, error) {
	k := len(columns)
	plots := make([][]*plot.Plot, k)
	for i := range k {
		plots[i] = make([]*plot.Plot, k)
		for j := range k {
			p := plot.New()
			if i == j {
				h, err := plotter.NewHist(plotter.Values(columns[j]), histogramBins)
				if err != nil {
					return nil, errors.Wrapf(err, "histogram of feature %d", j)
				}
				h.FillColor = pointColor
				p.Add(h)
			} else {
				xys := make(plotter.XYs, len(columns[j]))
				for n := range xys {
					xys[n].X = columns[j][n]
					xys[n].Y = columns[i][n]
				}
				sc, err := plotter.NewScatter(xys)
				if err != nil {
					return nil, errors.Wrapf(err, "scatter of features %d and %d", j, i)
				}
				sc.GlyphStyle = panelGlyph
				p.Add(sc)
			}

			if i == k-1 {
				p.X.Label.Text = fmt.Sprintf("Feature %d", j)
			}
			if j == 0 {
				p.Y.Label.Text = fmt.Sprintf("Feature %d", i)
			}
			plots[i][j] = p
		}
	}
	return plots, nil
}
