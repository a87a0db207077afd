// 文件: pkg/model/heston.go
// Heston 随机波动率模型 (双因子)
//
// dS_t = r S_t dt + √V_t S_t dW_t^S
// dV_t = κ(θ - V_t) dt + ξ√V_t dW_t^V,   corr(dW^S, dW^V) = ρ
//
// 【Feller 条件】2κθ > ξ² 时方差过程不会触零。
// 违反 Feller 条件不是构造错误，现实标定经常违反它。
// 对应的边界策略是全截断 (Full Truncation):
//
//	每次使用 √V 之前先做 V ← max(V, 0)
//
// 这是一个明确设计的数值近似，不是错误；所有方差格式统一执行。
//
// 【方差离散化格式】
//   - FullTruncationEuler: 默认。最快，弱一阶收敛
//   - AndersenQE: ψ 切换的二次/指数近似 + 鞅修正，Feller 违反时最稳健
//   - Alfonsi: 带高阶修正项的 Euler，Feller 满足时精度更好
//
// 引擎按"每步固定抽取 Factors()=2 个正态数"的约定运行，
// QE 指数分支所需的均匀数由独立正态分量经 Φ 变换得到，
// 保持每步消耗的随机数个数恒定 (对偶路径与 CRN 依赖这一点)。

package model

import (
	"fmt"
	"math"

	"quant.com/pkg/mathx"
)

// VarianceScheme Heston 方差过程的离散化格式
type VarianceScheme string

const (
	FullTruncationEuler VarianceScheme = "full_truncation_euler"
	AndersenQE          VarianceScheme = "andersen_qe"
	Alfonsi             VarianceScheme = "alfonsi"
)

// HestonParams Heston 模型参数
type HestonParams struct {
	S0    float64 // 初始价格
	V0    float64 // 初始方差
	R     float64 // 无风险利率
	Kappa float64 // 方差回复速度
	Theta float64 // 长期方差水平
	Xi    float64 // 方差的波动率 (vol-of-vol)
	Rho   float64 // 价格与方差的相关系数
}

type Heston struct {
	P      HestonParams
	Scheme VarianceScheme
}

// NewHeston 创建 Heston 模型 (默认全截断 Euler)
func NewHeston(p HestonParams) (*Heston, error) {
	return NewHestonWithScheme(p, FullTruncationEuler)
}

// NewHestonWithScheme 创建指定方差格式的 Heston 模型
func NewHestonWithScheme(p HestonParams, scheme VarianceScheme) (*Heston, error) {
	if err := validateHestonParams(p); err != nil {
		return nil, err
	}
	switch scheme {
	case FullTruncationEuler, AndersenQE, Alfonsi:
	default:
		return nil, fmt.Errorf("%w: scheme=%q (unknown variance scheme)", ErrInvalidParam, scheme)
	}
	return &Heston{P: p, Scheme: scheme}, nil
}

func validateHestonParams(p HestonParams) error {
	if err := requirePositive("s0", p.S0); err != nil {
		return err
	}
	if err := requireNonNegative("v0", p.V0); err != nil {
		return err
	}
	if err := requireFinite("r", p.R); err != nil {
		return err
	}
	if err := requirePositive("kappa", p.Kappa); err != nil {
		return err
	}
	if err := requirePositive("theta", p.Theta); err != nil {
		return err
	}
	if err := requirePositive("xi", p.Xi); err != nil {
		return err
	}
	if err := requireCorrelation("rho", p.Rho); err != nil {
		return err
	}

	// 数值稳定性的经验上限
	if p.Kappa > 100 {
		return fmt.Errorf("%w: kappa=%v (mean reversion > 100 will destabilize the discretization)", ErrInvalidParam, p.Kappa)
	}
	if p.Xi > 5 {
		return fmt.Errorf("%w: xi=%v (vol-of-vol > 5 will destabilize the discretization)", ErrInvalidParam, p.Xi)
	}
	if p.Theta > 1 {
		return fmt.Errorf("%w: theta=%v (long-run variance > 1 means >100%% vol)", ErrInvalidParam, p.Theta)
	}
	return nil
}

// FellerSatisfied 是否满足 Feller 条件 2κθ > ξ²
// 不满足时方差可能触零，由全截断策略兜底。
func (m *Heston) FellerSatisfied() bool {
	return 2*m.P.Kappa*m.P.Theta > m.P.Xi*m.P.Xi
}

func (m *Heston) Name() string { return "heston" }
func (m *Heston) StateDim() int { return 2 }
func (m *Heston) Factors() int { return 2 }
func (m *Heston) Initial() []float64 { return []float64{m.P.S0, m.P.V0} }
func (m *Heston) Rate() float64 { return m.P.R }

// Drift / Diffusion 通用求解器用的 1 维投影 (用初始方差近似)
// 完整双因子动力学走 StepState。
func (m *Heston) Drift(s, _ float64) float64 { return m.P.R * s }
func (m *Heston) Diffusion(s, _ float64) float64 { return math.Sqrt(m.P.V0) * s }

func (m *Heston) DiffusionDerivative(_, _ float64) float64 { return math.Sqrt(m.P.V0) }

// StepState 原生双因子单步
// state[0]=S, state[1]=V; z[0], z[1] 为独立标准正态
func (m *Heston) StepState(state []float64, _, dt float64, z []float64) {
	dwS, dwV := mathx.CorrelatedPair(m.P.Rho, z[0], z[1])

	switch m.Scheme {
	case AndersenQE:
		m.stepAndersenQE(state, dt, dwS, dwV, z[1])
	case Alfonsi:
		m.stepAlfonsi(state, dt, dwS, dwV)
	default:
		m.stepFullTruncation(state, dt, dwS, dwV)
	}
}

// stepFullTruncation 全截断 Euler
//
// V_{n+1} = max(0, V_n + κ(θ-V_n)Δt + ξ√V_n⁺·√Δt·Z_v)
// S_{n+1} = S_n · exp(r·Δt + √V_n⁺·√Δt·Z_s)
func (m *Heston) stepFullTruncation(state []float64, dt, dwS, dwV float64) {
	s, v := state[0], state[1]
	sqrtDt := math.Sqrt(dt)

	// 全截断: 用 √V 之前先截断
	sqrtV := 0.0
	if v > 0 {
		sqrtV = math.Sqrt(v)
	}

	dv := m.P.Kappa*(m.P.Theta-v)*dt + m.P.Xi*sqrtV*sqrtDt*dwV
	state[1] = math.Max(v+dv, 0)
	state[0] = s * math.Exp(m.P.R*dt+sqrtV*sqrtDt*dwS)
}

// stepAndersenQE Andersen 二次指数格式
//
// 先匹配 V 的条件均值 m 和条件方差 s²，按 ψ = s²/m² 切换:
//
//	ψ ≤ 1.5: V' = a(b + Z_v)²      (二次近似)
//	ψ > 1.5: 指数分布近似，均匀数 U = Φ(zIndep)
//
// 价格更新带鞅修正项 k0..k3，保证风险中性漂移。
func (m *Heston) stepAndersenQE(state []float64, dt, dwS, dwV, zIndep float64) {
	s, v := state[0], state[1]
	p := m.P

	expK := math.Exp(-p.Kappa * dt)
	mean := p.Theta + (v-p.Theta)*expK
	s2 := v*p.Xi*p.Xi*expK/p.Kappa*(1-expK) +
		p.Theta*p.Xi*p.Xi/(2*p.Kappa)*(1-expK)*(1-expK)

	psi := s2 / (mean * mean)
	const psiCrit = 1.5

	var vNext float64
	if psi <= psiCrit {
		b2 := 2/psi - 1 + math.Sqrt(2/psi*(2/psi-1))
		a := mean / (1 + b2)
		b := math.Sqrt(b2)
		vNext = a * (b + dwV) * (b + dwV)
	} else {
		pr := (psi - 1) / (psi + 1)
		beta := (1 - pr) / mean

		u := mathx.NormCDF(zIndep)
		if u <= pr {
			vNext = 0
		} else {
			vNext = math.Log((1-pr)/(1-u)) / beta
		}
	}
	vNext = math.Max(vNext, 0)

	// 鞅修正系数
	k0 := -p.Rho * p.Kappa * p.Theta / p.Xi * dt
	k1 := 0.5*dt*(p.Kappa*p.Rho/p.Xi-0.5) - p.Rho/p.Xi
	k2 := 0.5*dt*(p.Kappa*p.Rho/p.Xi-0.5) + p.Rho/p.Xi
	k3 := 0.5 * dt * (1 - p.Rho*p.Rho)

	vPos := math.Max(v, 0)
	dsOverS := p.R*dt + k0 + k1*v + k2*vNext + math.Sqrt(vPos)*math.Sqrt(k3)*dwS

	state[0] = math.Max(s*math.Exp(dsOverS), 1e-10)
	state[1] = vNext
}

// stepAlfonsi Alfonsi 高阶修正格式
func (m *Heston) stepAlfonsi(state []float64, dt, dwS, dwV float64) {
	s, v := state[0], state[1]
	p := m.P
	sqrtDt := math.Sqrt(dt)

	const gamma = 0.5

	vPos := math.Max(v, 0)
	vAux := v + p.Kappa*(p.Theta-v)*dt + p.Xi*math.Sqrt(vPos)*sqrtDt*dwV
	vAuxPos := math.Max(vAux, 0)

	correction := 0.0
	if v > 0 && vAux > 0 {
		correction = gamma * p.Xi * p.Xi * dt *
			(1/math.Sqrt(vAuxPos) - 1/math.Sqrt(v)) *
			(dwV*dwV - dt) / (2 * sqrtDt)
	}

	vNext := math.Max(vAux+correction, 0)

	sqrtVAvg := 0.5 * (math.Sqrt(vPos) + math.Sqrt(vNext))
	state[0] = s * math.Exp(p.R*dt+sqrtVAvg*sqrtDt*dwS)
	state[1] = vNext
}

var (
	_ DiffusionDifferentiable = (*Heston)(nil)
	_ StateStepper            = (*Heston)(nil)
	_ Discounter              = (*Heston)(nil)
)
