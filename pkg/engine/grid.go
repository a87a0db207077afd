// 文件: pkg/engine/grid.go
// 时间网格
//
// 网格一经构造即不可变，所有 Worker 只读共享。
// 不变量: t_0 = 0，严格递增，t_N = 到期时间。

package engine

import (
	"fmt"
	"math"
)

// TimeGrid 离散时间网格 [t_0=0, t_1, ..., t_N=T]
type TimeGrid struct {
	times []float64
}

// NewUniformGrid 构造等距网格: Δt = T / steps
func NewUniformGrid(maturity float64, steps int) (TimeGrid, error) {
	if steps <= 0 {
		return TimeGrid{}, fmt.Errorf("%w: steps=%d (must be > 0)", ErrInvalidConfig, steps)
	}
	if maturity <= 0 || math.IsNaN(maturity) || math.IsInf(maturity, 0) {
		return TimeGrid{}, fmt.Errorf("%w: maturity=%v (must be a positive finite number)", ErrInvalidConfig, maturity)
	}

	times := make([]float64, steps+1)
	dt := maturity / float64(steps)
	for i := 1; i < steps; i++ {
		times[i] = float64(i) * dt
	}
	// 端点精确赋值，避免累积舍入
	times[steps] = maturity
	return TimeGrid{times: times}, nil
}

// NewGrid 构造自定义网格 (如非均匀观察日)
func NewGrid(times []float64) (TimeGrid, error) {
	if len(times) < 2 {
		return TimeGrid{}, fmt.Errorf("%w: grid needs at least 2 points, got %d", ErrInvalidConfig, len(times))
	}
	if times[0] != 0 {
		return TimeGrid{}, fmt.Errorf("%w: grid must start at t=0, got %v", ErrInvalidConfig, times[0])
	}
	for i := 1; i < len(times); i++ {
		if math.IsNaN(times[i]) || math.IsInf(times[i], 0) || times[i] <= times[i-1] {
			return TimeGrid{}, fmt.Errorf("%w: grid not strictly increasing at index %d (%v -> %v)",
				ErrInvalidConfig, i, times[i-1], times[i])
		}
	}

	cp := make([]float64, len(times))
	copy(cp, times)
	return TimeGrid{times: cp}, nil
}

// Steps 步数 N
func (g TimeGrid) Steps() int { return len(g.times) - 1 }

// Maturity 到期时间 t_N
func (g TimeGrid) Maturity() float64 { return g.times[len(g.times)-1] }

// Time 第 i 个网格点 t_i
func (g TimeGrid) Time(i int) float64 { return g.times[i] }

// Dt 第 i 步的步长 t_{i+1} - t_i
func (g TimeGrid) Dt(i int) float64 { return g.times[i+1] - g.times[i] }
