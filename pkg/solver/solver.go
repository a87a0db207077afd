// 文件: pkg/solver/solver.go
// 离散化格式抽象
//
// 一个 Stepper = 一条离散化规则: (当前状态, 模型, Δt, 高斯增量) → 下一状态。
// Stepper 全部无内部状态，可被所有 Worker 安全共享。
//
// Select 在配置阶段做模型兼容性检查: Milstein 需要模型暴露扩散导数 b'，
// 不满足时直接返回错误，绝不在运行时降级成别的格式。

package solver

import (
	"errors"
	"fmt"

	"quant.com/pkg/model"
)

var (
	// ErrUnknownScheme 不认识的格式名
	ErrUnknownScheme = errors.New("unknown discretization scheme")

	// ErrIncompatible 模型缺少该格式要求的能力
	ErrIncompatible = errors.New("scheme incompatible with model")
)

// 格式名常量 (引擎配置直接引用)
const (
	SchemeEuler    = "euler"
	SchemeMilstein = "milstein"
	SchemeSRK      = "srk"
)

// Stepper 单步离散化规则
//
// z 是本步的标准正态增量向量 (长度 = 模型声明的布朗因子数)，
// 标量格式只消费 z[0]。Stepper 自己绝不抽随机数，
// 随机数的抽取节奏由引擎统一控制，这是对偶路径和 CRN 的前提。
type Stepper interface {
	Name() string
	Step(m model.Model, s, t, dt float64, z []float64) float64
}

// Select 按名字绑定格式，并在此刻完成模型兼容性检查
func Select(name string, m model.Model) (Stepper, error) {
	switch name {
	case SchemeEuler:
		return EulerMaruyama{}, nil
	case SchemeMilstein:
		if _, ok := m.(model.DiffusionDifferentiable); !ok {
			return nil, fmt.Errorf("%w: milstein requires a diffusion derivative, model %q does not expose one",
				ErrIncompatible, m.Name())
		}
		return Milstein{}, nil
	case SchemeSRK:
		return SRK{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}
