package solver

import (
	"errors"
	"math"
	"testing"

	"quant.com/pkg/model"
	"quant.com/pkg/rng"
)

// driftOnly 只满足最小 Model 契约的测试桩 (没有扩散导数)
type driftOnly struct{}

func (driftOnly) Name() string { return "drift_only" }
func (driftOnly) StateDim() int { return 1 }
func (driftOnly) Factors() int { return 1 }
func (driftOnly) Initial() []float64 { return []float64{1} }
func (driftOnly) Drift(s, _ float64) float64 { return 0.1 * s }
func (driftOnly) Diffusion(s, _ float64) float64 { return 0.3 * s }

func TestSelect_MilsteinRequiresDerivative(t *testing.T) {
	// 没有 b' 的模型必须在配置阶段被拒绝，一条路径都不会跑
	if _, err := Select(SchemeMilstein, driftOnly{}); !errors.Is(err, ErrIncompatible) {
		t.Fatalf("expected ErrIncompatible, got %v", err)
	}

	// Euler 和 SRK 不要求 b'
	if _, err := Select(SchemeEuler, driftOnly{}); err != nil {
		t.Fatalf("euler should accept any model: %v", err)
	}
	if _, err := Select(SchemeSRK, driftOnly{}); err != nil {
		t.Fatalf("srk should accept any model: %v", err)
	}

	gbm, _ := model.NewGBM(100, 0.05, 0.2)
	if _, err := Select(SchemeMilstein, gbm); err != nil {
		t.Fatalf("milstein should accept gbm: %v", err)
	}

	if _, err := Select("does_not_exist", gbm); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
}

// simulateOUMean 用指定格式模拟 OU 过程并返回终值均值
func simulateOUMean(st Stepper, m *model.OU, steps, paths int, tEnd float64) float64 {
	dt := tEnd / float64(steps)
	z := make([]float64, 1)

	var sum float64
	for i := 0; i < paths; i++ {
		stream := rng.New(42, uint64(i))
		s := m.Initial()[0]
		t := 0.0
		for k := 0; k < steps; k++ {
			stream.NormalVec(z)
			s = st.Step(m, s, t, dt, z)
			t += dt
		}
		sum += s
	}
	return sum / float64(paths)
}

// ouWeakErrors 不同步数下模拟均值与精确均值的绝对误差序列
func ouWeakErrors(t *testing.T, st Stepper) []float64 {
	t.Helper()

	m, err := model.NewOU(100, 0.5, 0.1, 0.2)
	if err != nil {
		t.Fatalf("ou: %v", err)
	}
	const paths = 50000
	const tEnd = 1.0
	exact := m.ExactMean(tEnd)

	var errs []float64
	for _, steps := range []int{10, 20, 40, 80} {
		mean := simulateOUMean(st, m, steps, paths, tEnd)
		errs = append(errs, math.Abs(mean-exact))
	}
	return errs
}

func assertWeakConvergence(t *testing.T, name string, errs []float64, finalBound float64) {
	t.Helper()
	for i := 0; i+1 < len(errs); i++ {
		if errs[i] <= errs[i+1] {
			t.Fatalf("%s: weak error did not shrink from %d to %d steps: %v -> %v",
				name, 10<<i, 10<<(i+1), errs[i], errs[i+1])
		}
	}
	final := errs[len(errs)-1]
	if final >= finalBound {
		t.Fatalf("%s: final weak error %v >= bound %v", name, final, finalBound)
	}
}

func TestEulerMaruyama_OUWeakConvergence(t *testing.T) {
	assertWeakConvergence(t, "euler", ouWeakErrors(t, EulerMaruyama{}), 0.15)
}

func TestMilstein_OUWeakConvergence(t *testing.T) {
	assertWeakConvergence(t, "milstein", ouWeakErrors(t, Milstein{}), 0.10)
}

func TestSRK_OUWeakConvergence(t *testing.T) {
	errs := ouWeakErrors(t, SRK{})

	// Heun 校正把均值偏差压到蒙特卡洛噪声量级 (50000 条路径约 7e-4)，
	// 粗细网格之间的误差排序由噪声主导，逐级递减不再可靠，只约束上界
	for i, e := range errs {
		if e >= 0.05 {
			t.Fatalf("srk: weak error at %d steps = %v, want < 0.05", 10<<i, e)
		}
	}

	// 最粗网格上也应明显优于 Euler 的最粗网格
	m, err := model.NewOU(100, 0.5, 0.1, 0.2)
	if err != nil {
		t.Fatalf("ou: %v", err)
	}
	eulerCoarse := math.Abs(simulateOUMean(EulerMaruyama{}, m, 10, 50000, 1.0) - m.ExactMean(1.0))
	if errs[0] >= eulerCoarse {
		t.Fatalf("srk coarse error %v should beat euler coarse error %v", errs[0], eulerCoarse)
	}
}

func TestMilstein_DegeneratesToEulerOnConstantDiffusion(t *testing.T) {
	// OU 的 b'≡0，Milstein 的修正项消失，必须与 Euler 逐位一致
	m, _ := model.NewOU(100, 0.5, 0.1, 0.2)
	z := []float64{0.7}

	e := EulerMaruyama{}.Step(m, 100, 0, 0.01, z)
	mi := Milstein{}.Step(m, 100, 0, 0.01, z)
	if e != mi {
		t.Fatalf("milstein must equal euler when b'=0: %v vs %v", e, mi)
	}
}

// gbmStrongRMSE 与闭式解逐路径比较的均方根误差 (同一组随机数)
func gbmStrongRMSE(st Stepper, m *model.GBM, steps, paths int, tEnd float64) float64 {
	dt := tEnd / float64(steps)
	sqrtDt := math.Sqrt(dt)
	z := make([]float64, 1)

	var sumSq float64
	for i := 0; i < paths; i++ {
		stream := rng.New(42, uint64(i))

		numeric := m.Initial()[0]
		exact := numeric
		t := 0.0
		for k := 0; k < steps; k++ {
			stream.NormalVec(z)
			numeric = st.Step(m, numeric, t, dt, z)
			// 闭式解用同一个 Z
			exact *= math.Exp((m.Mu-0.5*m.Sigma*m.Sigma)*dt + m.Sigma*sqrtDt*z[0])
			t += dt
		}
		diff := numeric - exact
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(paths))
}

func TestGBM_StrongConvergenceOrdering(t *testing.T) {
	m, _ := model.NewGBM(100, 0.05, 0.2)
	const paths = 2000
	const tEnd = 1.0

	var eulerErrs []float64
	for _, steps := range []int{10, 40, 160} {
		eulerErrs = append(eulerErrs, gbmStrongRMSE(EulerMaruyama{}, m, steps, paths, tEnd))
	}
	for i := 0; i+1 < len(eulerErrs); i++ {
		if eulerErrs[i] <= eulerErrs[i+1] {
			t.Fatalf("euler strong RMSE did not shrink: %v", eulerErrs)
		}
	}
	if final := eulerErrs[len(eulerErrs)-1]; final >= 1.0 {
		t.Fatalf("euler final strong RMSE too high: %v", final)
	}

	// Milstein 强收敛 1 阶，同步数下应明显优于 Euler (0.5 阶)
	eu := gbmStrongRMSE(EulerMaruyama{}, m, 40, paths, tEnd)
	mi := gbmStrongRMSE(Milstein{}, m, 40, paths, tEnd)
	if mi >= eu {
		t.Fatalf("milstein RMSE (%v) should beat euler RMSE (%v) on GBM", mi, eu)
	}
}
