package mathx

import (
	"math"
	"testing"

	"quant.com/pkg/rng"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestNormCDF_ReferenceValues(t *testing.T) {
	// 标准正态分布的几个经典参考点
	cases := []struct {
		x    float64
		want float64
	}{
		{0, 0.5},
		{1, 0.841344746068543},
		{-1, 0.158655253931457},
		{1.959963984540054, 0.975},
	}

	for _, c := range cases {
		got := NormCDF(c.x)
		if !almostEqual(got, c.want, 1e-9) {
			t.Fatalf("NormCDF(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestNormPDF_Symmetry(t *testing.T) {
	if !almostEqual(NormPDF(0), 1.0/math.Sqrt(2*math.Pi), 1e-12) {
		t.Fatalf("NormPDF(0) mismatch: %v", NormPDF(0))
	}
	for _, x := range []float64{0.5, 1.3, 2.7} {
		if !almostEqual(NormPDF(x), NormPDF(-x), 1e-15) {
			t.Fatalf("NormPDF not symmetric at %v", x)
		}
	}
}

func TestCorrelatedPair_SampleCorrelation(t *testing.T) {
	// 用大样本验证: 输出对的样本相关系数 ≈ ρ
	const rho = -0.7
	const n = 200000

	s := rng.New(42, 0)

	var sumA, sumB, sumAB, sumA2, sumB2 float64
	for i := 0; i < n; i++ {
		a, b := CorrelatedPair(rho, s.Normal(), s.Normal())
		sumA += a
		sumB += b
		sumAB += a * b
		sumA2 += a * a
		sumB2 += b * b
	}

	meanA, meanB := sumA/n, sumB/n
	cov := sumAB/n - meanA*meanB
	varA := sumA2/n - meanA*meanA
	varB := sumB2/n - meanB*meanB

	got := cov / math.Sqrt(varA*varB)
	if math.Abs(got-rho) > 0.01 {
		t.Fatalf("sample correlation mismatch: got=%v want=%v", got, rho)
	}
}
