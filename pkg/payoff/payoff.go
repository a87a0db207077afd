// 文件: pkg/payoff/payoff.go
// 期权收益函数库
//
// Payoff 是纯函数: 价格路径 → 非负标量，无随机、无副作用。
// 统一吃整条路径 ([S_0 ... S_T])，欧式只看末端，
// 亚式/障碍等路径依赖型吃全路径，引擎不需要区分。

package payoff

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPayoff 收益函数参数不合法
var ErrInvalidPayoff = errors.New("invalid payoff parameter")

// Payoff 收益函数契约
type Payoff interface {
	// Value 给定完整价格路径的收益 (未贴现)
	Value(path []float64) float64

	// Describe 人可读描述，用于日志与持久化
	Describe() string
}

// =============================================================================
// 欧式
// =============================================================================

// EuropeanCall 欧式看涨: max(S_T - K, 0)
type EuropeanCall struct {
	K float64
}

func NewEuropeanCall(k float64) (EuropeanCall, error) {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return EuropeanCall{}, fmt.Errorf("%w: strike=%v", ErrInvalidPayoff, k)
	}
	return EuropeanCall{K: k}, nil
}

func (p EuropeanCall) Value(path []float64) float64 {
	return math.Max(path[len(path)-1]-p.K, 0)
}

func (p EuropeanCall) Describe() string { return fmt.Sprintf("european_call(K=%g)", p.K) }

// EuropeanPut 欧式看跌: max(K - S_T, 0)
type EuropeanPut struct {
	K float64
}

func NewEuropeanPut(k float64) (EuropeanPut, error) {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return EuropeanPut{}, fmt.Errorf("%w: strike=%v", ErrInvalidPayoff, k)
	}
	return EuropeanPut{K: k}, nil
}

func (p EuropeanPut) Value(path []float64) float64 {
	return math.Max(p.K-path[len(path)-1], 0)
}

func (p EuropeanPut) Describe() string { return fmt.Sprintf("european_put(K=%g)", p.K) }

// =============================================================================
// 路径依赖型
// =============================================================================

// AsianCall 算术平均亚式看涨: max(Avg(S) - K, 0)
type AsianCall struct {
	K float64
}

func NewAsianCall(k float64) (AsianCall, error) {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return AsianCall{}, fmt.Errorf("%w: strike=%v", ErrInvalidPayoff, k)
	}
	return AsianCall{K: k}, nil
}

func (p AsianCall) Value(path []float64) float64 {
	var sum float64
	for _, s := range path {
		sum += s
	}
	avg := sum / float64(len(path))
	return math.Max(avg-p.K, 0)
}

func (p AsianCall) Describe() string { return fmt.Sprintf("asian_call(K=%g)", p.K) }

// BarrierCallUpOut 向上敲出看涨: 路径触及 H 即作废，否则 max(S_T - K, 0)
type BarrierCallUpOut struct {
	K float64
	H float64 // 障碍水平
}

func NewBarrierCallUpOut(k, h float64) (BarrierCallUpOut, error) {
	if k <= 0 || h <= k {
		return BarrierCallUpOut{}, fmt.Errorf("%w: strike=%v barrier=%v (need 0 < K < H)", ErrInvalidPayoff, k, h)
	}
	return BarrierCallUpOut{K: k, H: h}, nil
}

func (p BarrierCallUpOut) Value(path []float64) float64 {
	for _, s := range path {
		if s >= p.H {
			return 0 // 敲出
		}
	}
	return math.Max(path[len(path)-1]-p.K, 0)
}

func (p BarrierCallUpOut) Describe() string {
	return fmt.Sprintf("barrier_call_up_out(K=%g,H=%g)", p.K, p.H)
}

// BarrierPutUpOut 向上敲出看跌
type BarrierPutUpOut struct {
	K float64
	H float64
}

func NewBarrierPutUpOut(k, h float64) (BarrierPutUpOut, error) {
	if k <= 0 || h <= 0 {
		return BarrierPutUpOut{}, fmt.Errorf("%w: strike=%v barrier=%v", ErrInvalidPayoff, k, h)
	}
	return BarrierPutUpOut{K: k, H: h}, nil
}

func (p BarrierPutUpOut) Value(path []float64) float64 {
	for _, s := range path {
		if s >= p.H {
			return 0
		}
	}
	return math.Max(p.K-path[len(path)-1], 0)
}

func (p BarrierPutUpOut) Describe() string {
	return fmt.Sprintf("barrier_put_up_out(K=%g,H=%g)", p.K, p.H)
}
