// 文件: pkg/solver/srk.go
// 随机 Runge-Kutta 格式 (一阶 Heun 型预估-校正)
//
// 1. 预估 (Euler 试探步):
//    X* = X_n + a(X_n, t_n)·Δt + b(X_n, t_n)·ΔW
// 2. 校正 (两端系数取平均，同一个 ΔW):
//    X_{n+1} = X_n + ½[a(X_n,t_n)+a(X*,t_{n+1})]·Δt + ½[b(X_n,t_n)+b(X*,t_{n+1})]·ΔW
//
// 不要求 b'，却能在状态相关系数的模型上拿到接近 Milstein 的精度。
// 代价是每步两次系数求值。

package solver

import (
	"math"

	"quant.com/pkg/model"
)

type SRK struct{}

func (SRK) Name() string { return SchemeSRK }

func (SRK) Step(m model.Model, s, t, dt float64, z []float64) float64 {
	dw := math.Sqrt(dt) * z[0]

	// 预估步
	sStar := s + m.Drift(s, t)*dt + m.Diffusion(s, t)*dw

	// 校正步: 首末两端取平均
	driftAvg := 0.5 * (m.Drift(s, t) + m.Drift(sStar, t+dt))
	diffusionAvg := 0.5 * (m.Diffusion(s, t) + m.Diffusion(sStar, t+dt))

	return s + driftAvg*dt + diffusionAvg*dw
}
