// 文件: pkg/mathx/mathx.go
// 数值基础工具: 正态分布 pdf/cdf、相关高斯对
//
// 全部是纯函数，给定输入必然给出相同输出。
// 解析定价 (Black-Scholes) 和带相关因子的模型 (Heston/SABR) 共用。

package mathx

import "math"

// NormPDF 标准正态分布概率密度函数
// φ(x) = exp(-x²/2) / sqrt(2π)
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// NormCDF 标准正态分布累积分布函数
// N(x) = 0.5 * (1 + erf(x / sqrt(2)))
//
// 基于 math.Erf，在双精度范围内数值稳定。
func NormCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// CorrelatedPair 由两个独立标准正态数构造相关系数为 rho 的一对
//
// Z1' = Z1
// Z2' = ρ·Z1 + sqrt(1-ρ²)·Z2
//
// Heston 的 (dW_S, dW_V)、SABR 的 (dW_F, dW_V) 都走这条路。
func CorrelatedPair(rho, z1, z2 float64) (float64, float64) {
	return z1, rho*z1 + math.Sqrt(1.0-rho*rho)*z2
}
