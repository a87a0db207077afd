// 文件: pkg/solver/milstein.go
// Milstein 格式 (标量扩散)
//
// 在 Euler 的基础上加 Itô 修正项:
//
//	X_{n+1} = X_n + a·Δt + b·ΔW + ½·b·b'·((ΔW)² - Δt)
//
// 修正项补偿扩散系数的非线性，把强收敛从 0.5 阶提到 1 阶。
// 代价: 模型必须暴露 b'。Select 已在配置阶段保证这一点，
// 这里的类型断言只是把契约落到代码上。

package solver

import (
	"math"

	"quant.com/pkg/model"
)

type Milstein struct{}

func (Milstein) Name() string { return SchemeMilstein }

func (Milstein) Step(m model.Model, s, t, dt float64, z []float64) float64 {
	dd := m.(model.DiffusionDifferentiable)

	dw := math.Sqrt(dt) * z[0]
	b := m.Diffusion(s, t)
	bPrime := dd.DiffusionDerivative(s, t)

	return s + m.Drift(s, t)*dt + b*dw + 0.5*b*bPrime*(dw*dw-dt)
}
