// 文件: pkg/model/model.go
// SDE 模型抽象
//
// 一个模型 = 一个带参数的随机过程:
//
//	dX_t = a(X_t, t) dt + b(X_t, t) dW_t  (+可选跳跃项)
//
// 【契约设计】
// Model 接口只要求标量视角的 drift/diffusion (观测量 = state[0])，
// 这是通用求解器 (Euler/Milstein/SRK) 唯一依赖的能力。
// 其余能力全部用"可选接口"表达，由求解与引擎层按需探测:
//
//   - DiffusionDifferentiable: 暴露 b' = ∂b/∂x，Milstein 的前置条件
//   - ExactStepper:            闭式单步 (GBM)，零离散化偏差
//   - StateStepper:            多因子原生动力学 (Heston/SABR/Merton)
//   - JumpStepper:             跳跃项 (Merton)
//   - Discounter:              风险中性利率，用于贴现
//
// 这样新增模型/求解器都不需要改已有代码，也不会出现
// "模型 × 求解器"的组合爆炸。
//
// 【不变量】
// 参数域约束 (σ>0, κ>0, θ>0, ρ∈[-1,1]...) 在构造时校验，
// 构造完成后模型不可变，可被任意多个 Worker 只读共享。
// 仿真途中绝不因参数问题 panic。

package model

import (
	"errors"
	"fmt"
	"math"

	"quant.com/pkg/rng"
)

// ErrInvalidParam 模型参数不满足域约束
var ErrInvalidParam = errors.New("invalid model parameter")

// Model SDE 模型的最小契约 (标量视角)
type Model interface {
	// Name 模型名，用于日志与持久化
	Name() string

	// StateDim 状态向量维度 (GBM/OU/Merton=1, Heston/SABR=2)
	StateDim() int

	// Factors 每个时间步需要的独立布朗因子数
	// 引擎按此批量抽取正态数，保证对偶路径与 CRN 精确对齐
	Factors() int

	// Initial 初始状态向量 (每条路径各自拷贝一份)
	Initial() []float64

	// Drift 漂移项 a(s, t)，s 为观测量 state[0]
	Drift(s, t float64) float64

	// Diffusion 扩散项 b(s, t)
	Diffusion(s, t float64) float64
}

// DiffusionDifferentiable 能提供扩散导数 b' 的模型
// Milstein 格式的修正项 ½·b·b'·((ΔW)²-Δt) 需要它；
// 不实现该接口的模型在配置阶段就会拒绝 Milstein。
type DiffusionDifferentiable interface {
	DiffusionDerivative(s, t float64) float64
}

// ExactStepper 有闭式条件分布的模型 (GBM)
// 走精确单步时完全绕过通用求解器，离散化偏差为零。
type ExactStepper interface {
	ExactStep(s, dt, z float64) float64
}

// StateStepper 拥有原生多因子动力学的模型
// state 原地更新；z 的长度等于 Factors()。
type StateStepper interface {
	StepState(state []float64, t, dt float64, z []float64)
}

// JumpStepper 带跳跃项的模型 (Merton)
//
// 跳跃次数与跳跃幅度分开抽取:
// 次数由引擎抽一次 (对偶路径共享同一次数)，
// 幅度的高斯抽样由引擎传入 (对偶路径取 -Z)。
type JumpStepper interface {
	SampleJumpCount(dt float64, stream *rng.Stream) int
	ApplyJumps(s float64, z []float64) float64
}

// Discounter 在风险中性测度下定价的模型提供贴现利率
// 不实现该接口的模型 (如 OU) 的估计值不做贴现。
type Discounter interface {
	Rate() float64
}

// =============================================================================
// 参数校验工具
// =============================================================================

func requireFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v (must be finite)", ErrInvalidParam, name, v)
	}
	return nil
}

func requirePositive(name string, v float64) error {
	if err := requireFinite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s=%v (must be > 0)", ErrInvalidParam, name, v)
	}
	return nil
}

func requireNonNegative(name string, v float64) error {
	if err := requireFinite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: %s=%v (must be >= 0)", ErrInvalidParam, name, v)
	}
	return nil
}

func requireCorrelation(name string, v float64) error {
	if err := requireFinite(name, v); err != nil {
		return err
	}
	if v < -1 || v > 1 {
		return fmt.Errorf("%w: %s=%v (must be in [-1, 1])", ErrInvalidParam, name, v)
	}
	return nil
}
