// 文件: pkg/greeks/greeks_test.go

package greeks

import (
	"context"
	"errors"
	"math"
	"testing"

	"quant.com/pkg/analytic"
	"quant.com/pkg/engine"
)

var refMkt = Market{S0: 100, K: 100, R: 0.05, Sigma: 0.2, T: 1}

func TestPathwiseCallGreeks_MatchAnalytic(t *testing.T) {
	pw, err := PathwiseCallGreeks(context.Background(), refMkt, 200000, 42)
	if err != nil {
		t.Fatal(err)
	}

	check := func(got Result, want float64) {
		t.Helper()
		if got.StdErr <= 0 {
			t.Fatalf("%s: stderr = %v, want > 0", got.Name, got.StdErr)
		}
		diff := math.Abs(got.Value - want)
		if diff > 4*got.StdErr {
			t.Errorf("%s = %v, analytic = %v, diff %v exceeds 4 stderr (%v)",
				got.Name, got.Value, want, diff, 4*got.StdErr)
		}
		if rel := diff / math.Abs(want); rel > 0.02 {
			t.Errorf("%s relative error = %v, want < 2%%", got.Name, rel)
		}
	}

	price, _ := analytic.PriceCallBS(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)
	delta, _ := analytic.DeltaCall(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)
	vega, _ := analytic.Vega(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)
	rho, _ := analytic.RhoCall(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)

	check(pw.Price, price)
	check(pw.Delta, delta)
	check(pw.Vega, vega)
	check(pw.Rho, rho)
}

func TestPathwiseCallGreeks_Deterministic(t *testing.T) {
	a, err := PathwiseCallGreeks(context.Background(), refMkt, 10000, 7)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PathwiseCallGreeks(context.Background(), refMkt, 10000, 7)
	if err != nil {
		t.Fatal(err)
	}
	if a.Delta.Value != b.Delta.Value || a.Vega.Value != b.Vega.Value {
		t.Error("pathwise greeks not reproducible for identical seed")
	}

	c, err := PathwiseCallGreeks(context.Background(), refMkt, 10000, 8)
	if err != nil {
		t.Fatal(err)
	}
	if a.Delta.Value == c.Delta.Value {
		t.Error("different seeds produced identical estimate")
	}
}

func TestPathwiseCallGreeks_Validation(t *testing.T) {
	bad := refMkt
	bad.Sigma = 0
	if _, err := PathwiseCallGreeks(context.Background(), bad, 1000, 1); !errors.Is(err, ErrInvalidGreeksInput) {
		t.Errorf("zero sigma: err = %v", err)
	}
	if _, err := PathwiseCallGreeks(context.Background(), refMkt, 0, 1); !errors.Is(err, ErrInvalidGreeksInput) {
		t.Errorf("zero paths: err = %v", err)
	}
}

func TestFDCallGreeks_MatchAnalytic(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Paths = 100000
	cfg.Steps = 1

	delta, gamma, vega, rho, err := FDCallGreeks(context.Background(), refMkt, cfg, 0)
	if err != nil {
		t.Fatal(err)
	}

	// CRN 抵消了估值间的噪声，剩余误差来自 O(h²) 偏差与残余方差
	checkRel := func(got Result, want, tol float64) {
		t.Helper()
		if got.Bump <= 0 {
			t.Fatalf("%s: bump = %v, want > 0", got.Name, got.Bump)
		}
		if rel := math.Abs(got.Value-want) / math.Abs(want); rel > tol {
			t.Errorf("%s = %v, analytic = %v (relative error %v > %v)", got.Name, got.Value, want, rel, tol)
		}
	}

	aDelta, _ := analytic.DeltaCall(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)
	aGamma, _ := analytic.Gamma(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)
	aVega, _ := analytic.Vega(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)
	aRho, _ := analytic.RhoCall(refMkt.S0, refMkt.K, refMkt.R, refMkt.Sigma, refMkt.T)

	checkRel(delta, aDelta, 0.02)
	checkRel(gamma, aGamma, 0.15)
	checkRel(vega, aVega, 0.05)
	checkRel(rho, aRho, 0.05)

	// 默认 bump 为参数的 1%
	if math.Abs(delta.Bump-1.0) > 1e-12 {
		t.Errorf("delta bump = %v, want 1.0 (1%% of S0)", delta.Bump)
	}
	if math.Abs(vega.Bump-0.002) > 1e-12 {
		t.Errorf("vega bump = %v, want 0.002 (1%% of sigma)", vega.Bump)
	}
}

func TestCentralDiff_ExactOnQuadratic(t *testing.T) {
	// f(x) = 3x² + 2x: 中心差分对二次函数无截断误差
	f := func(x float64) (float64, error) { return 3*x*x + 2*x, nil }

	d, err := CentralDiff("slope", 5, 0.1, f)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d.Value-32) > 1e-9 {
		t.Errorf("derivative = %v, want 32", d.Value)
	}

	g, err := SecondDiff("curvature", 5, 0.1, f)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g.Value-6) > 1e-7 {
		t.Errorf("second derivative = %v, want 6", g.Value)
	}
}
