package model

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は学習状態を持つ変換器の基底となる構造体
// StandardScaler や PCA に埋め込んで使う
type BaseEstimator struct {
	state EstimatorState

	// NFeatures と NSamples は直近の Fit で見た入力の形状
	NFeatures int
	NSamples  int
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定し、入力の形状を記録する
func (e *BaseEstimator) SetFitted(nSamples, nFeatures int) {
	e.state = Fitted
	e.NSamples = nSamples
	e.NFeatures = nFeatures
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
	e.NSamples = 0
	e.NFeatures = 0
}
