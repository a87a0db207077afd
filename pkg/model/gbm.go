// 文件: pkg/model/gbm.go
// 几何布朗运动 (Geometric Brownian Motion)
//
// dS_t = μ S_t dt + σ S_t dW_t
//
// Black-Scholes 世界的标的过程。风险中性定价时 μ 取无风险利率 r。
// GBM 有闭式解:
//
//	S_{t+Δt} = S_t · exp((μ - σ²/2)Δt + σ√Δt·Z)
//
// 所以它同时实现 ExactStepper: 精确单步没有任何离散化偏差，
// 是验证引擎统计性质的基准模型。

package model

import "math"

type GBM struct {
	S0    float64 // 初始价格
	Mu    float64 // 漂移率 (风险中性下 = 无风险利率 r)
	Sigma float64 // 年化波动率
}

func NewGBM(s0, mu, sigma float64) (*GBM, error) {
	if err := requirePositive("s0", s0); err != nil {
		return nil, err
	}
	if err := requireFinite("mu", mu); err != nil {
		return nil, err
	}
	if err := requirePositive("sigma", sigma); err != nil {
		return nil, err
	}
	return &GBM{S0: s0, Mu: mu, Sigma: sigma}, nil
}

func (m *GBM) Name() string { return "gbm" }
func (m *GBM) StateDim() int { return 1 }
func (m *GBM) Factors() int { return 1 }
func (m *GBM) Initial() []float64 { return []float64{m.S0} }
func (m *GBM) Rate() float64 { return m.Mu }

func (m *GBM) Drift(s, _ float64) float64 { return m.Mu * s }
func (m *GBM) Diffusion(s, _ float64) float64 { return m.Sigma * s }

// DiffusionDerivative b(s) = σs 对 s 的导数恒为 σ
func (m *GBM) DiffusionDerivative(_, _ float64) float64 { return m.Sigma }

// ExactStep 闭式单步 (零离散化偏差)
func (m *GBM) ExactStep(s, dt, z float64) float64 {
	return s * math.Exp((m.Mu-0.5*m.Sigma*m.Sigma)*dt+m.Sigma*math.Sqrt(dt)*z)
}

var (
	_ DiffusionDifferentiable = (*GBM)(nil)
	_ ExactStepper            = (*GBM)(nil)
	_ Discounter              = (*GBM)(nil)
)
