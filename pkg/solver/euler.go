// 文件: pkg/solver/euler.go
// Euler-Maruyama 格式
//
// X_{n+1} = X_n + a(X_n, t_n)·Δt + b(X_n, t_n)·ΔW_n,  ΔW_n = √Δt·Z
//
// 强收敛 0.5 阶 / 弱收敛 1 阶。最通用的兜底格式，
// 对模型没有任何额外能力要求。

package solver

import (
	"math"

	"quant.com/pkg/model"
)

type EulerMaruyama struct{}

func (EulerMaruyama) Name() string { return SchemeEuler }

func (EulerMaruyama) Step(m model.Model, s, t, dt float64, z []float64) float64 {
	dw := math.Sqrt(dt) * z[0]
	return s + m.Drift(s, t)*dt + m.Diffusion(s, t)*dw
}
