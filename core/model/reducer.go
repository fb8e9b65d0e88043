package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Reducer は次元削減アルゴリズムのインターフェース
// アルゴリズムの中身はブラックボックスとして扱い、
// (n_samples × n_features) の行列を (n_samples × n_components) の埋め込みに変換する
type Reducer interface {
	// Name はレジストリ上の名前を返す（例: "PCA", "t-SNE"）
	Name() string

	// FitTransform はデータに適合し、低次元の埋め込みを返す
	// ctx がキャンセルされた場合、実装は可能な限り早く処理を中断する
	FitTransform(ctx context.Context, X mat.Matrix) (mat.Matrix, error)
}

// ReducerFunc は関数を Reducer として扱うためのアダプタ
type ReducerFunc struct {
	ReducerName string
	Fn          func(ctx context.Context, X mat.Matrix) (mat.Matrix, error)
}

// Name は Reducer.Name を実装する
func (f ReducerFunc) Name() string {
	return f.ReducerName
}

// FitTransform は Reducer.FitTransform を実装する
func (f ReducerFunc) FitTransform(ctx context.Context, X mat.Matrix) (mat.Matrix, error) {
	return f.Fn(ctx, X)
}
