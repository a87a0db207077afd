// 文件: pkg/model/ou.go
// Ornstein-Uhlenbeck 均值回复过程
//
// dX_t = κ(μ - X_t) dt + σ dW_t
//
// 扩散项是常数 σ，所以 b' ≡ 0，Milstein 对 OU 合法但退化为 Euler。
// OU 的均值有精确解:
//
//	E[X_t] = μ + (X_0 - μ)·e^{-κt}
//
// 这让它成为校验三种求解器弱收敛阶的理想标尺。
// OU 不在风险中性测度下定价 (μ 是回复水平不是利率)，因此不实现 Discounter。

package model

import "math"

type OU struct {
	X0    float64 // 初始值
	Kappa float64 // 回复速度
	Mu    float64 // 长期均值
	Sigma float64 // 波动率 (常数扩散)
}

func NewOU(x0, kappa, mu, sigma float64) (*OU, error) {
	if err := requireFinite("x0", x0); err != nil {
		return nil, err
	}
	if err := requirePositive("kappa", kappa); err != nil {
		return nil, err
	}
	if err := requireFinite("mu", mu); err != nil {
		return nil, err
	}
	if err := requirePositive("sigma", sigma); err != nil {
		return nil, err
	}
	return &OU{X0: x0, Kappa: kappa, Mu: mu, Sigma: sigma}, nil
}

func (m *OU) Name() string { return "ou" }
func (m *OU) StateDim() int { return 1 }
func (m *OU) Factors() int { return 1 }
func (m *OU) Initial() []float64 { return []float64{m.X0} }

func (m *OU) Drift(s, _ float64) float64 { return m.Kappa * (m.Mu - s) }
func (m *OU) Diffusion(_, _ float64) float64 { return m.Sigma }

// DiffusionDerivative 常数扩散的导数为 0
func (m *OU) DiffusionDerivative(_, _ float64) float64 { return 0 }

// ExactMean t 时刻的精确均值 (求解器收敛测试用)
func (m *OU) ExactMean(t float64) float64 {
	return m.Mu + (m.X0-m.Mu)*math.Exp(-m.Kappa*t)
}

var _ DiffusionDifferentiable = (*OU)(nil)
