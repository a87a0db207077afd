// 文件: pkg/model/merton.go
// Merton 跳跃扩散模型
//
// dS_t/S_t = μ dt + σ dW_t + (J-1) dN_t
//
// 连续部分是 GBM，叠加强度为 λ 的泊松跳跃，
// 跳跃幅度 ln(J) ~ N(μ_J, σ_J²)。
//
// 【跳跃与对偶路径】
// 跳跃次数由引擎对每步抽一次泊松数，基准路径与对偶路径共享；
// 跳跃幅度的高斯抽样走引擎的统一通道，对偶路径取 -Z。
// 这样对偶配对只翻转高斯分量，两条路径仍是同分布的有效样本。

package model

import (
	"math"

	"quant.com/pkg/rng"
)

// MertonParams Merton 模型参数
type MertonParams struct {
	S0     float64 // 初始价格
	Mu     float64 // 连续部分漂移 (风险中性下 = r)
	Sigma  float64 // 连续部分波动率
	Lambda float64 // 跳跃强度 (次/年)
	MuJ    float64 // 对数跳跃幅度均值
	SigmaJ float64 // 对数跳跃幅度标准差
}

type Merton struct {
	P MertonParams
}

func NewMerton(p MertonParams) (*Merton, error) {
	if err := requirePositive("s0", p.S0); err != nil {
		return nil, err
	}
	if err := requireFinite("mu", p.Mu); err != nil {
		return nil, err
	}
	if err := requirePositive("sigma", p.Sigma); err != nil {
		return nil, err
	}
	if err := requireNonNegative("lambda", p.Lambda); err != nil {
		return nil, err
	}
	if err := requireFinite("mu_j", p.MuJ); err != nil {
		return nil, err
	}
	if err := requireNonNegative("sigma_j", p.SigmaJ); err != nil {
		return nil, err
	}
	return &Merton{P: p}, nil
}

func (m *Merton) Name() string { return "merton" }
func (m *Merton) StateDim() int { return 1 }
func (m *Merton) Factors() int { return 1 }
func (m *Merton) Initial() []float64 { return []float64{m.P.S0} }
func (m *Merton) Rate() float64 { return m.P.Mu }

// Drift / Diffusion 连续部分的标量视角 (通用求解器只看连续部分)
func (m *Merton) Drift(s, _ float64) float64 { return m.P.Mu * s }
func (m *Merton) Diffusion(s, _ float64) float64 { return m.P.Sigma * s }

func (m *Merton) DiffusionDerivative(_, _ float64) float64 { return m.P.Sigma }

// StepState 原生单步: 连续部分按对数正态精确推进
// 跳跃部分由引擎通过 JumpStepper 叠加。
func (m *Merton) StepState(state []float64, _, dt float64, z []float64) {
	state[0] *= math.Exp((m.P.Mu-0.5*m.P.Sigma*m.P.Sigma)*dt + m.P.Sigma*math.Sqrt(dt)*z[0])
}

// SampleJumpCount 抽取本步跳跃次数 ~ Poisson(λ·Δt)
func (m *Merton) SampleJumpCount(dt float64, stream *rng.Stream) int {
	return stream.Poisson(m.P.Lambda * dt)
}

// ApplyJumps 依次叠加 n 次跳跃: S ← S·exp(μ_J + σ_J·Z_j)
func (m *Merton) ApplyJumps(s float64, z []float64) float64 {
	for _, zj := range z {
		s *= math.Exp(m.P.MuJ + m.P.SigmaJ*zj)
	}
	return s
}

var (
	_ DiffusionDifferentiable = (*Merton)(nil)
	_ StateStepper            = (*Merton)(nil)
	_ JumpStepper             = (*Merton)(nil)
	_ Discounter              = (*Merton)(nil)
)
