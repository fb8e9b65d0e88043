// Package visualize renders the experiment's plots to PNG files with
// gonum.org/v1/plot.
package visualize

import (
	"bytes"
	"image/color"
	"io"
	"math/rand/v2"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

// Plot geometry and styling defaults.
const (
	DefaultWidth            = 10 * vg.Inch
	DefaultHeight           = 6 * vg.Inch
	DefaultPanelSize        = 2.5 * vg.Inch
	DefaultPairwiseFeatures = 5
)

var (
	// pointColor is matplotlib's default blue at alpha 0.7.
	pointColor = color.NRGBA{R: 31, G: 119, B: 180, A: 179}

	scatterGlyph = draw.GlyphStyle{
		Color:  pointColor,
		Radius: vg.Points(1.25),
		Shape:  draw.CircleGlyph{},
	}

	panelGlyph = draw.GlyphStyle{
		Color:  pointColor,
		Radius: vg.Points(0.75),
		Shape:  draw.CircleGlyph{},
	}
)

// Sink writes plots. All files are written atomically through FS.
type Sink struct {
	FS     fs.FileSystem
	Logger log.Logger

	// Width and Height size the scatter plot.
	Width, Height vg.Length

	// PanelSize is the edge length of one pairwise grid cell.
	PanelSize vg.Length

	// PairwiseFeatures caps the number of sampled columns in the pairwise grid.
	PairwiseFeatures int

	// Src drives column sampling. Nil uses the global source.
	Src rand.Source
}

// NewSink creates a Sink with default geometry on the local file system.
func NewSink(logger log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}
	return &Sink{
		FS:               fs.Default,
		Logger:           logger.With(log.ComponentKey, "visualize"),
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		PanelSize:        DefaultPanelSize,
		PairwiseFeatures: DefaultPairwiseFeatures,
	}
}

// WithSeed makes column sampling deterministic. A zero seed keeps the
// global source.
func (s *Sink) WithSeed(seed uint64) *Sink {
	if seed != 0 {
		s.Src = rand.NewPCG(seed, seed)
	}
	return s
}

func (s *Sink) save(path string, w io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return errors.NewStorageError("render plot", path, err)
	}
	if err := fs.WriteFileAtomic(s.FS, path, buf.Bytes(), 0o644); err != nil {
		return errors.NewStorageError("write plot", path, err)
	}
	s.Logger.Info("Saved plot", log.PathKey, path)
	return nil
}
