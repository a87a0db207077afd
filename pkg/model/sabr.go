// 文件: pkg/model/sabr.go
// SABR 随机波动率模型 (β=1 对数正态情形)
//
// dF_t = α F_t V_t dW_t^F
// dV_t = ν V_t dW_t^V,   corr(dW^F, dW^V) = ρ
//
// 只支持 β=1 (对数正态)。其他 β 值是明确的非目标:
// 构造时直接报错，绝不做静默近似。
// F 是远期价格，风险中性漂移为 0，因此不做贴现。

package model

import (
	"fmt"
	"math"

	"quant.com/pkg/mathx"
)

// SABRParams SABR 模型参数
type SABRParams struct {
	F0    float64 // 初始远期价格
	Alpha float64 // 波动率系数
	Beta  float64 // CEV 指数，本实现固定为 1
	Rho   float64 // 价格与波动率的相关系数
	Nu    float64 // vol-of-vol
	V0    float64 // 初始波动率因子
}

type SABR struct {
	P SABRParams
}

func NewSABR(p SABRParams) (*SABR, error) {
	if p.Beta != 1.0 {
		// β≠1 是非目标，不是待实现项
		return nil, fmt.Errorf("%w: beta=%v (only the lognormal case beta=1 is supported)", ErrInvalidParam, p.Beta)
	}
	if err := requirePositive("f0", p.F0); err != nil {
		return nil, err
	}
	if err := requirePositive("alpha", p.Alpha); err != nil {
		return nil, err
	}
	if err := requireCorrelation("rho", p.Rho); err != nil {
		return nil, err
	}
	if err := requirePositive("nu", p.Nu); err != nil {
		return nil, err
	}
	if err := requirePositive("v0", p.V0); err != nil {
		return nil, err
	}
	return &SABR{P: p}, nil
}

func (m *SABR) Name() string { return "sabr" }
func (m *SABR) StateDim() int { return 2 }
func (m *SABR) Factors() int { return 2 }
func (m *SABR) Initial() []float64 { return []float64{m.P.F0, m.P.V0} }

// Drift / Diffusion 通用求解器用的 1 维投影 (用初始波动率因子近似)
func (m *SABR) Drift(_, _ float64) float64 { return 0 }
func (m *SABR) Diffusion(f, _ float64) float64 { return m.P.Alpha * m.P.V0 * f }

func (m *SABR) DiffusionDerivative(_, _ float64) float64 { return m.P.Alpha * m.P.V0 }

// StepState 原生双因子单步
// state[0]=F, state[1]=V
//
// V 先走简单 Euler 并在 0 处截断 (与 Heston 相同的全截断策略)，
// F 用更新后的 V 按对数正态形式推进。
func (m *SABR) StepState(state []float64, _, dt float64, z []float64) {
	f, v := state[0], state[1]
	sqrtDt := math.Sqrt(dt)

	z1, z2corr := mathx.CorrelatedPair(m.P.Rho, z[0], z[1])

	v += m.P.Nu * v * sqrtDt * z2corr
	if v < 0 {
		v = 0
	}

	logDF := -0.5*m.P.Alpha*m.P.Alpha*v*v*dt + m.P.Alpha*v*sqrtDt*z1
	state[0] = f * math.Exp(logDF)
	state[1] = v
}

var (
	_ DiffusionDifferentiable = (*SABR)(nil)
	_ StateStepper            = (*SABR)(nil)
)
