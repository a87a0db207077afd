// 文件: pkg/engine/estimate.go
// 样本归约
//
// 归约严格按样本下标顺序求和，保证相同样本集合的
// 浮点结果逐位一致 (与并行填充时的 Worker 数无关)。

package engine

import (
	"math"
	"time"
)

// Estimate 一次仿真的估计结果
type Estimate struct {
	// Mean 估计值 (启用控制变量时为修正后的均值)
	Mean float64

	// StdErr 标准误 sqrt(样本方差 / 样本数)
	StdErr float64

	// Samples 独立样本数 (对偶模式下为配对数 Paths/2)
	Samples int

	// Paths 实际生成的路径总数
	Paths int

	// 以下仅在启用控制变量时有意义
	NaiveMean   float64 // 修正前均值
	NaiveStdErr float64 // 修正前标准误
	B           float64 // 控制系数 b = Cov(Y,X)/Var(X)
	VRF         float64 // 方差缩减比 Var(Y)/Var(Y')

	Elapsed time.Duration
}

// ConfidenceInterval 95% 置信区间 [mean - 1.96·se, mean + 1.96·se]
func (e Estimate) ConfidenceInterval() (lo, hi float64) {
	const z95 = 1.96
	return e.Mean - z95*e.StdErr, e.Mean + z95*e.StdErr
}

// summarize 由样本切片归约出 Estimate
// ctrl 非空时按估计出的 b 逐样本修正 Y' = Y - b·(X - E[X])。
func summarize(ys, xs []float64, ctrl *Control) Estimate {
	n := len(ys)
	meanY, varY := meanVar(ys)

	est := Estimate{
		Mean:    meanY,
		StdErr:  stdErr(varY, n),
		Samples: n,
	}
	if ctrl == nil || n < 2 {
		return est
	}

	meanX, varX := meanVar(xs)
	if varX == 0 {
		return est
	}

	var cov float64
	for i := range ys {
		cov += (ys[i] - meanY) * (xs[i] - meanX)
	}
	cov /= float64(n - 1)

	b := cov / varX
	adjMean := meanY - b*(meanX-ctrl.Mean)

	// 修正后样本的方差 (围绕修正后均值)
	var varAdj float64
	for i := range ys {
		d := ys[i] - b*(xs[i]-ctrl.Mean) - adjMean
		varAdj += d * d
	}
	varAdj /= float64(n - 1)

	est.NaiveMean = meanY
	est.NaiveStdErr = est.StdErr
	est.Mean = adjMean
	est.StdErr = stdErr(varAdj, n)
	est.B = b
	if varAdj > 0 {
		est.VRF = varY / varAdj
	}
	return est
}

func meanVar(v []float64) (mean, variance float64) {
	n := len(v)
	for _, x := range v {
		mean += x
	}
	mean /= float64(n)

	if n < 2 {
		return mean, 0
	}
	for _, x := range v {
		d := x - mean
		variance += d * d
	}
	variance /= float64(n - 1)
	return mean, variance
}

func stdErr(variance float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Sqrt(variance / float64(n))
}
