package reducer

import (
	"context"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dimred/core/model"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

var _ model.Reducer = (*PCA)(nil)

// PCA は主成分分析による次元削減
// 主成分の計算は gonum/stat の PC（特異値分解）に任せる
type PCA struct {
	model.BaseEstimator

	// NComponents は残す主成分の数
	NComponents int

	// Mean は学習データの列平均
	Mean []float64

	// Components は (n_features × NComponents) の主成分ベクトル
	Components *mat.Dense

	// ExplainedVariance は各主成分の分散
	ExplainedVariance []float64

	// ExplainedVarianceRatio は全分散に対する各主成分の割合
	ExplainedVarianceRatio []float64

	logger log.Logger
}

// NewPCA は新しいPCAを作成する
func NewPCA(nComponents int, logger log.Logger) *PCA {
	if logger == nil {
		logger = log.Default()
	}
	return &PCA{
		NComponents: nComponents,
		logger:      logger.With(log.ComponentKey, "reducer", log.ReducerKey, NamePCA),
	}
}

// Name は Reducer.Name を実装する
func (p *PCA) Name() string {
	return NamePCA
}

// FitTransform はデータを中心化し、上位 NComponents 個の主成分へ射影する
func (p *PCA) FitTransform(ctx context.Context, X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "PCA.FitTransform")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if p.NComponents < 1 {
		return nil, errors.NewValidationError("n_components", "must be positive", p.NComponents)
	}
	if r < p.NComponents {
		return nil, errors.NewDimensionError("PCA.FitTransform", p.NComponents, r, 0)
	}
	if c < p.NComponents {
		return nil, errors.NewDimensionError("PCA.FitTransform", p.NComponents, c, 1)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, errors.New("PCA: singular value decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	p.Components = mat.DenseCopyOf(vecs.Slice(0, c, 0, p.NComponents))
	p.ExplainedVariance = append([]float64(nil), vars[:p.NComponents]...)
	p.ExplainedVarianceRatio = make([]float64, p.NComponents)
	total := 0.0
	for _, v := range vars {
		total += v
	}
	for i, v := range p.ExplainedVariance {
		if total > 0 {
			p.ExplainedVarianceRatio[i] = v / total
		}
	}

	// 中心化
	p.Mean = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		p.Mean[j] = stat.Mean(col, nil)
	}
	centered := mat.DenseCopyOf(X)
	for i := 0; i < r; i++ {
		row := centered.RawRowView(i)
		for j := range row {
			row[j] -= p.Mean[j]
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var embedding mat.Dense
	embedding.Mul(centered, p.Components)

	p.SetFitted(r, c)
	p.logger.Debug("PCA fitted",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.ExplainedVarianceKey, p.ExplainedVarianceRatio,
	)
	return &embedding, nil
}
