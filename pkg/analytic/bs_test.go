// 文件: pkg/analytic/bs_test.go

package analytic

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBS_Prices_ReferenceCase(t *testing.T) {
	// 经典参数: S=100, K=100, r=0.05, sigma=0.2, T=1
	// 回归基准: Call≈10.4505835722, Put≈5.5735260223
	S, K, r, sigma, T := 100.0, 100.0, 0.05, 0.2, 1.0

	call, err := PriceCallBS(S, K, r, sigma, T)
	if err != nil {
		t.Fatalf("call err: %v", err)
	}
	put, err := PricePutBS(S, K, r, sigma, T)
	if err != nil {
		t.Fatalf("put err: %v", err)
	}

	if !almostEqual(call, 10.450583572185565, 1e-9) {
		t.Fatalf("call price mismatch: got=%v", call)
	}
	if !almostEqual(put, 5.573526022256971, 1e-9) {
		t.Fatalf("put price mismatch: got=%v", put)
	}
}

func TestBS_PutCallParity(t *testing.T) {
	// C - P = S - K*e^{-rT}
	S, K, r, sigma, T := 100.0, 110.0, 0.03, 0.25, 0.5

	call, _ := PriceCallBS(S, K, r, sigma, T)
	put, _ := PricePutBS(S, K, r, sigma, T)

	left := call - put
	right := S - K*math.Exp(-r*T)
	if !almostEqual(left, right, 1e-9) {
		t.Fatalf("parity mismatch: left=%v right=%v", left, right)
	}
}

func TestBS_T0_IntrinsicValue(t *testing.T) {
	call, _ := PriceCallBS(90, 100, 0.05, 0.2, 0)
	put, _ := PricePutBS(90, 100, 0.05, 0.2, 0)

	if call != 0 {
		t.Fatalf("call intrinsic mismatch: got=%v", call)
	}
	if put != 10 {
		t.Fatalf("put intrinsic mismatch: got=%v", put)
	}
}

func TestBS_Sigma0_Deterministic(t *testing.T) {
	S, K, r, T := 100.0, 120.0, 0.05, 1.0

	call, _ := PriceCallBS(S, K, r, 0, T)
	want := math.Max(S-K*math.Exp(-r*T), 0)
	if !almostEqual(call, want, 1e-12) {
		t.Fatalf("sigma0 call mismatch: got=%v want=%v", call, want)
	}
}

func TestBS_InvalidInputs(t *testing.T) {
	cases := [][5]float64{
		{-1, 100, 0.05, 0.2, 1}, // S <= 0
		{100, 0, 0.05, 0.2, 1},  // K <= 0
		{100, 100, 0.05, -0.1, 1},
		{100, 100, 0.05, 0.2, -1},
	}
	for _, c := range cases {
		if _, err := PriceCallBS(c[0], c[1], c[2], c[3], c[4]); !errors.Is(err, ErrInvalidInputs) {
			t.Fatalf("call %v: err = %v, want ErrInvalidInputs", c, err)
		}
		if _, err := PricePutBS(c[0], c[1], c[2], c[3], c[4]); !errors.Is(err, ErrInvalidInputs) {
			t.Fatalf("put %v: err = %v, want ErrInvalidInputs", c, err)
		}
	}
}

func TestGreeks_ReferenceCase(t *testing.T) {
	S, K, r, sigma, T := 100.0, 100.0, 0.05, 0.2, 1.0

	delta, err := DeltaCall(S, K, r, sigma, T)
	if err != nil {
		t.Fatalf("delta err: %v", err)
	}
	if !almostEqual(delta, 0.6368306511756191, 1e-9) {
		t.Fatalf("delta mismatch: got=%v", delta)
	}

	gamma, _ := Gamma(S, K, r, sigma, T)
	if !almostEqual(gamma, 0.018762, 1e-4) {
		t.Fatalf("gamma mismatch: got=%v", gamma)
	}

	vega, _ := Vega(S, K, r, sigma, T)
	if !almostEqual(vega, 37.524, 1e-2) {
		t.Fatalf("vega mismatch: got=%v", vega)
	}

	theta, _ := ThetaCall(S, K, r, sigma, T)
	if !almostEqual(theta, -6.414, 1e-2) {
		t.Fatalf("theta mismatch: got=%v", theta)
	}

	rho, _ := RhoCall(S, K, r, sigma, T)
	if !almostEqual(rho, 53.232, 1e-2) {
		t.Fatalf("rho mismatch: got=%v", rho)
	}
}

func TestGreeks_CallPutIdentities(t *testing.T) {
	S, K, r, sigma, T := 100.0, 95.0, 0.04, 0.3, 2.0

	dc, _ := DeltaCall(S, K, r, sigma, T)
	dp, _ := DeltaPut(S, K, r, sigma, T)
	if !almostEqual(dc-dp, 1, 1e-12) {
		t.Fatalf("delta identity mismatch: call=%v put=%v", dc, dp)
	}

	// RhoCall - RhoPut = K·T·e^{-rT}
	rc, _ := RhoCall(S, K, r, sigma, T)
	rp, _ := RhoPut(S, K, r, sigma, T)
	want := K * T * math.Exp(-r*T)
	if !almostEqual(rc-rp, want, 1e-9) {
		t.Fatalf("rho identity mismatch: got=%v want=%v", rc-rp, want)
	}
}

func TestImpliedVolatility_RoundTrip(t *testing.T) {
	S, K, r, T := 100.0, 105.0, 0.05, 0.75
	const sigma = 0.25

	price, err := PriceCallBS(S, K, r, sigma, T)
	if err != nil {
		t.Fatal(err)
	}
	iv, err := ImpliedVolatility(S, K, r, price, T)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(iv, sigma, 1e-4) {
		t.Fatalf("implied vol = %v, want %v", iv, sigma)
	}
}

func TestImpliedVolatility_PriceBelowAttainableRange(t *testing.T) {
	// 市场价低于 σ→0 的理论下限时没有解。
	// 第一个牛顿步会把 σ 推成负数，迭代必须把它拉回合法域
	// 并以 ErrNoConvergence 收场，而不是被输入校验误报成参数错误。
	_, err := ImpliedVolatility(100, 100, 0, 1e-8, 1)
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("err = %v, want ErrNoConvergence", err)
	}
}
