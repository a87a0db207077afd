// 文件: pkg/analytic/bs.go
// Black-Scholes 解析定价
//
// 蒙特卡洛结果的基准真值来源: GBM + 欧式期权有闭式解，
// 引擎与希腊字母的数值结果都拿这里做对照。
// 无分红欧式，r 为连续复利年化利率。

package analytic

import (
	"errors"
	"math"

	"quant.com/pkg/mathx"
)

var (
	// ErrInvalidInputs 定价输入不合法 (S/K 非正，σ/T 为负)
	ErrInvalidInputs = errors.New("invalid inputs")

	// ErrNoConvergence 隐含波动率迭代未收敛
	ErrNoConvergence = errors.New("implied volatility iteration did not converge")
)

// PriceCallBS 欧式看涨期权 Black-Scholes 价格
//
// S: 标的现价  K: 执行价  r: 无风险利率  sigma: 年化波动率  T: 剩余期限(年)
func PriceCallBS(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	// 到期时刻退化为内在价值
	if T == 0 {
		return math.Max(S-K, 0), nil
	}
	// 零波动率下价格确定
	if sigma == 0 {
		return math.Max(S-K*math.Exp(-r*T), 0), nil
	}

	d1 := calcD1(S, K, r, sigma, T)
	d2 := d1 - sigma*math.Sqrt(T)
	return S*mathx.NormCDF(d1) - K*math.Exp(-r*T)*mathx.NormCDF(d2), nil
}

// PricePutBS 欧式看跌期权 Black-Scholes 价格
func PricePutBS(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	if T == 0 {
		return math.Max(K-S, 0), nil
	}
	if sigma == 0 {
		return math.Max(K*math.Exp(-r*T)-S, 0), nil
	}

	d1 := calcD1(S, K, r, sigma, T)
	d2 := d1 - sigma*math.Sqrt(T)
	return K*math.Exp(-r*T)*mathx.NormCDF(-d2) - S*mathx.NormCDF(-d1), nil
}

// DeltaCall 看涨期权 Delta = N(d1)
func DeltaCall(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	return mathx.NormCDF(calcD1(S, K, r, sigma, T)), nil
}

// DeltaPut 看跌期权 Delta = N(d1) - 1
func DeltaPut(S, K, r, sigma, T float64) (float64, error) {
	d, err := DeltaCall(S, K, r, sigma, T)
	if err != nil {
		return 0, err
	}
	return d - 1, nil
}

// Gamma 期权 Gamma (看涨看跌相同)
func Gamma(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	d1 := calcD1(S, K, r, sigma, T)
	return mathx.NormPDF(d1) / (S * sigma * math.Sqrt(T)), nil
}

// Vega 期权 Vega (看涨看跌相同)
func Vega(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	d1 := calcD1(S, K, r, sigma, T)
	return S * math.Sqrt(T) * mathx.NormPDF(d1), nil
}

// ThetaCall 看涨期权 Theta (对日历时间的敏感度)
func ThetaCall(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	d1 := calcD1(S, K, r, sigma, T)
	d2 := d1 - sigma*math.Sqrt(T)
	return -S*mathx.NormPDF(d1)*sigma/(2*math.Sqrt(T)) - r*K*math.Exp(-r*T)*mathx.NormCDF(d2), nil
}

// RhoCall 看涨期权 Rho = K·T·e^{-rT}·N(d2)
func RhoCall(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	d2 := calcD1(S, K, r, sigma, T) - sigma*math.Sqrt(T)
	return K * T * math.Exp(-r*T) * mathx.NormCDF(d2), nil
}

// RhoPut 看跌期权 Rho = -K·T·e^{-rT}·N(-d2)
func RhoPut(S, K, r, sigma, T float64) (float64, error) {
	if err := validateBSInputs(S, K, sigma, T); err != nil {
		return 0, err
	}
	d2 := calcD1(S, K, r, sigma, T) - sigma*math.Sqrt(T)
	return -K * T * math.Exp(-r*T) * mathx.NormCDF(-d2), nil
}

// ImpliedVolatility 牛顿法反推看涨期权隐含波动率
//
// σ_{n+1} = σ_n + (市场价 - BS价) / Vega
func ImpliedVolatility(S, K, r, marketPrice, T float64) (float64, error) {
	const (
		tolerance     = 1e-6
		maxIterations = 100
		minSigma      = 1e-4
		maxSigma      = 5.0
	)

	sigma := 0.2
	for i := 0; i < maxIterations; i++ {
		price, err := PriceCallBS(S, K, r, sigma, T)
		if err != nil {
			return 0, err
		}
		vega, err := Vega(S, K, r, sigma, T)
		if err != nil {
			return 0, err
		}

		diff := marketPrice - price
		if math.Abs(diff) < tolerance {
			return sigma, nil
		}
		sigma += diff / vega
		// 牛顿步长过大会把 σ 推出合法域，拉回边界继续迭代
		if sigma < minSigma {
			sigma = minSigma
		} else if sigma > maxSigma {
			sigma = maxSigma
		}
	}
	return 0, ErrNoConvergence
}

func validateBSInputs(S, K, sigma, T float64) error {
	if S <= 0 || K <= 0 {
		return ErrInvalidInputs
	}
	if sigma < 0 || T < 0 {
		return ErrInvalidInputs
	}
	return nil
}

// calcD1 d1 = [ln(S/K) + (r + σ²/2)T] / (σ√T)
func calcD1(S, K, r, sigma, T float64) float64 {
	return (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
}
