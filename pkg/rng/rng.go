// 文件: pkg/rng/rng.go
// 确定性随机流 (Deterministic Random Stream)
//
// 蒙特卡洛定价对随机数有三个硬性要求:
// 1. 可复现: 相同 (seedBase, pathIndex) 必须产生完全相同的序列 (跨机器、跨运行)
// 2. 并行安全: 每条路径独占一个 Stream，不同路径的流相互独立
// 3. 无全局状态: 初始状态是 (seedBase, pathIndex) 的纯函数，
//    与 Worker 数量、调度顺序完全无关
//
// 实现采用 splitmix64: 状态每次递增黄金比例常数，输出做一次混淆。
// 初始状态由 seedBase 与 pathIndex 分别混淆后异或得到，
// 把相邻路径的流散到整个 64 位状态空间。

package rng

import "math"

// Stream 单条路径专属的随机流
//
// 不是并发安全的，这是刻意的设计:
// 每个 Stream 由一个 Worker 独占，路径结束后即丢弃，
// 从而完全避免锁和共享可变状态。
type Stream struct {
	state uint64

	// Box-Muller 每次产生一对正态数，缓存第二个
	spare    float64
	hasSpare bool
}

// golden splitmix64 的状态增量 (⌊2^64/φ⌋，奇数，走满整个状态空间)
const golden = 0x9e3779b97f4a7c15

// finalize splitmix64 输出混淆
func finalize(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// New 创建路径专属随机流
//
// seedBase: 引擎配置的基础种子
// pathIndex: 路径下标 [0, M)
//
// 初始状态推导必须是纯函数，这是并行确定性的根基。
// seedBase 和 pathIndex 先各自过一遍混淆再组合:
// 若直接取 seedBase+pathIndex 当状态，路径 i+1 的序列
// 就是路径 i 的序列整体前移一位，样本间完全相关。
func New(seedBase, pathIndex uint64) *Stream {
	return &Stream{state: finalize(seedBase+golden) ^ finalize(pathIndex*golden+golden)}
}

// Uint64 产生下一个 64 位随机数
func (s *Stream) Uint64() uint64 {
	s.state += golden
	return finalize(s.state)
}

// Uniform 产生 [0, 1) 均匀分布随机数
// 取高 53 位，保证是 float64 可精确表示的格点
func (s *Stream) Uniform() float64 {
	return float64(s.Uint64()>>11) * (1.0 / 9007199254740992.0) // 2^53
}

// Normal 产生标准正态分布 N(0,1) 随机数 (Box-Muller 变换)
//
// Z1 = sqrt(-2 ln U1) * cos(2π U2)
// Z2 = sqrt(-2 ln U1) * sin(2π U2)
//
// 一次变换产生两个独立正态数，第二个缓存在 spare 里。
func (s *Stream) Normal() float64 {
	if s.hasSpare {
		s.hasSpare = false
		return s.spare
	}

	u1 := s.Uniform()
	// U1=0 会导致 ln(0) = -Inf，重新抽一个
	for u1 == 0 {
		u1 = s.Uniform()
	}
	u2 := s.Uniform()

	mag := math.Sqrt(-2.0 * math.Log(u1))
	z1 := mag * math.Cos(2.0*math.Pi*u2)
	z2 := mag * math.Sin(2.0*math.Pi*u2)

	s.spare = z2
	s.hasSpare = true
	return z1
}

// NormalVec 填充一组标准正态随机数
//
// 引擎按"每步每个布朗因子一个 Z"的约定批量抽取，
// 这样对偶路径 (negate) 和 CRN (共同随机数) 都能精确对齐。
func (s *Stream) NormalVec(dst []float64) {
	for i := range dst {
		dst[i] = s.Normal()
	}
}

// Poisson 产生泊松分布随机数 (Knuth 乘法)
//
// 用于 Merton 跳跃扩散的单步跳跃次数 (mean = λ·Δt)。
// λ·Δt 通常远小于 1，乘法算法的循环次数期望也就 1 附近，足够快。
func (s *Stream) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	threshold := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= s.Uniform()
		if p <= threshold {
			return k
		}
		k++
	}
}
