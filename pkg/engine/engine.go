// 文件: pkg/engine/engine.go
// 并行蒙特卡洛仿真引擎
//
// 职责:
// 1. 按配置把模型 × 格式 × 收益函数组装成一次仿真
// 2. 分片并行生成路径，收集每个样本的收益值
// 3. 顺序归约成 Estimate (均值、标准误、方差缩减统计)
//
// 【确定性】
// 第 i 个样本的随机流种子 = SeedBase + i，与 Worker 无关；
// 每个样本的结果写入按下标预分配的切片，归约严格按下标顺序，
// 因此相同配置在任意 Worker 数下产出逐位一致的结果。
//
// 【对偶变量】
// 启用时按 (Z, -Z) 配对: 共 Paths/2 对，每对共用一个随机流，
// 镜像路径取全部高斯增量的相反数 (跳跃次数共享、跳跃幅度取反)，
// 一对的收益均值记为一个样本。

package engine

import (
	"context"
	"log"
	"math"
	"runtime"
	"sync"
	"time"

	"quant.com/pkg/model"
	"quant.com/pkg/payoff"
	"quant.com/pkg/rng"
	"quant.com/pkg/solver"
)

// Control 控制变量配置
//
// Variate 对每条路径给出控制观测 X，Mean 是它的精确期望 E[X]。
// 系数 b = Cov(Y,X)/Var(X) 由全体样本估计，修正 Y' = Y - b·(X - E[X])。
type Control struct {
	Variate func(path []float64) float64
	Mean    float64
}

// TerminalPriceControl 末端价格控制变量
//
// 对风险中性模型 E[S_T] = S_0·e^{rT} 有闭式期望，
// 与欧式/亚式收益高度相关，是最常用的控制变量。
func TerminalPriceControl(m model.Model, maturity float64) Control {
	s0 := m.Initial()[0]
	mean := s0
	if d, ok := m.(model.Discounter); ok {
		mean = s0 * math.Exp(d.Rate()*maturity)
	}
	return Control{
		Variate: func(path []float64) float64 { return path[len(path)-1] },
		Mean:    mean,
	}
}

// PayoffControl 以另一收益函数为控制变量 (期望由调用方提供，
// 典型用法: 欧式看涨以 Black-Scholes 解析价作为 E[X])
func PayoffControl(p payoff.Payoff, mean float64) Control {
	return Control{Variate: p.Value, Mean: mean}
}

// Engine 蒙特卡洛仿真引擎
//
// 构造后不可变，可并发调用 Run。
type Engine struct {
	m       model.Model
	cfg     Config
	grid    TimeGrid
	stepper solver.Stepper // 仅通用格式非空
}

// New 组装引擎，配置错误在此刻全部暴露
func New(m model.Model, cfg Config) (*Engine, error) {
	if err := cfg.Validate(m); err != nil {
		return nil, err
	}

	e := &Engine{m: m, cfg: cfg}
	if cfg.Grid != nil {
		e.grid = *cfg.Grid
	} else {
		g, err := NewUniformGrid(cfg.Maturity, cfg.Steps)
		if err != nil {
			return nil, err
		}
		e.grid = g
	}

	switch cfg.Scheme {
	case SchemeExact, SchemeNative:
		// 模型自带步进能力，无需通用求解器
	default:
		st, err := solver.Select(cfg.Scheme, m)
		if err != nil {
			return nil, err
		}
		e.stepper = st
	}
	return e, nil
}

// Grid 引擎实际使用的时间网格
func (e *Engine) Grid() TimeGrid { return e.grid }

// Run 执行一次完整仿真
//
// 收益在路径末端贴现 (模型实现 Discounter 时)。
// ctrl 为 nil 时不做控制变量修正。
func (e *Engine) Run(ctx context.Context, pay payoff.Payoff, ctrl *Control) (Estimate, error) {
	start := time.Now()

	samples := e.cfg.Paths
	if e.cfg.Antithetic {
		samples = e.cfg.Paths / 2
	}

	ys := make([]float64, samples)
	xs := []float64(nil)
	if ctrl != nil {
		xs = make([]float64, samples)
	}

	if err := e.fillSamples(ctx, pay, ctrl, ys, xs); err != nil {
		return Estimate{}, err
	}

	est := summarize(ys, xs, ctrl)
	est.Paths = e.cfg.Paths
	est.Elapsed = time.Since(start)

	log.Printf("[Engine] model=%s scheme=%s payoff=%s paths=%d: mean=%.6f stderr=%.6f (%.0f paths/s)",
		e.m.Name(), e.cfg.Scheme, pay.Describe(), e.cfg.Paths,
		est.Mean, est.StdErr, float64(e.cfg.Paths)/est.Elapsed.Seconds())
	return est, nil
}

// fillSamples 分片并行填充样本切片，下标即样本序号
func (e *Engine) fillSamples(ctx context.Context, pay payoff.Payoff, ctrl *Control, ys, xs []float64) error {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(ys) {
		workers = len(ys)
	}

	chunk := (len(ys) + workers - 1) / workers
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(ys) {
			hi = len(ys)
		}

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			buf := newPathBuf(e.m, e.grid.Steps())
			for i := lo; i < hi; i++ {
				if i%256 == 0 && ctx.Err() != nil {
					errs[w] = ctx.Err()
					return
				}
				y, x := e.runSample(uint64(i), buf, pay, ctrl)
				ys[i] = y
				if xs != nil {
					xs[i] = x
				}
			}
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// pathBuf worker 私有缓冲区，跨路径复用，避免每条路径重新分配
type pathBuf struct {
	z     []float64 // 本步高斯增量
	zNeg  []float64 // 镜像增量
	jz    []float64 // 跳跃幅度抽样
	st    []float64 // 基路径状态
	stNeg []float64 // 镜像路径状态
	pathA []float64 // 基路径观测量轨迹
	pathB []float64 // 镜像路径观测量轨迹
}

func newPathBuf(m model.Model, steps int) *pathBuf {
	return &pathBuf{
		z:     make([]float64, m.Factors()),
		zNeg:  make([]float64, m.Factors()),
		st:    make([]float64, m.StateDim()),
		stNeg: make([]float64, m.StateDim()),
		pathA: make([]float64, steps+1),
		pathB: make([]float64, steps+1),
	}
}

// runSample 生成一个样本 (单条路径，或对偶模式下的一对)
// 返回贴现后的收益样本 y 与控制观测 x。
func (e *Engine) runSample(idx uint64, buf *pathBuf, pay payoff.Payoff, ctrl *Control) (y, x float64) {
	stream := rng.New(e.cfg.SeedBase, idx)
	e.simulate(stream, buf)

	df := 1.0
	if d, ok := e.m.(model.Discounter); ok {
		df = math.Exp(-d.Rate() * e.grid.Maturity())
	}

	y = df * pay.Value(buf.pathA)
	if ctrl != nil {
		x = ctrl.Variate(buf.pathA)
	}
	if e.cfg.Antithetic {
		y = 0.5 * (y + df*pay.Value(buf.pathB))
		if ctrl != nil {
			x = 0.5 * (x + ctrl.Variate(buf.pathB))
		}
	}
	return y, x
}

// simulate 用给定随机流走完整条路径 (对偶模式下基/镜像两条同步推进)
//
// 每步先批量抽 Factors() 个正态数再步进:
// 抽取节奏只取决于网格与模型，基路径与镜像路径共享同一批抽样，
// 这是对偶配对与 CRN (共同随机数) 对齐的前提。
func (e *Engine) simulate(stream *rng.Stream, buf *pathBuf) {
	copy(buf.st, e.m.Initial())
	buf.pathA[0] = buf.st[0]
	if e.cfg.Antithetic {
		copy(buf.stNeg, e.m.Initial())
		buf.pathB[0] = buf.stNeg[0]
	}

	jm, hasJumps := e.m.(model.JumpStepper)

	for i := 0; i < e.grid.Steps(); i++ {
		t := e.grid.Time(i)
		dt := e.grid.Dt(i)

		stream.NormalVec(buf.z)
		e.step(buf.st, t, dt, buf.z)

		if e.cfg.Antithetic {
			for k := range buf.z {
				buf.zNeg[k] = -buf.z[k]
			}
			e.step(buf.stNeg, t, dt, buf.zNeg)
		}

		if hasJumps {
			// 跳跃次数一对共用，幅度镜像取反
			n := jm.SampleJumpCount(dt, stream)
			if n > 0 {
				if cap(buf.jz) < n {
					buf.jz = make([]float64, n)
				}
				jz := buf.jz[:n]
				stream.NormalVec(jz)
				buf.st[0] = jm.ApplyJumps(buf.st[0], jz)
				if e.cfg.Antithetic {
					for k := range jz {
						jz[k] = -jz[k]
					}
					buf.stNeg[0] = jm.ApplyJumps(buf.stNeg[0], jz)
				}
			}
		}

		buf.pathA[i+1] = buf.st[0]
		if e.cfg.Antithetic {
			buf.pathB[i+1] = buf.stNeg[0]
		}
	}
}

// step 单步推进一个状态向量
func (e *Engine) step(state []float64, t, dt float64, z []float64) {
	switch e.cfg.Scheme {
	case SchemeExact:
		state[0] = e.m.(model.ExactStepper).ExactStep(state[0], dt, z[0])
	case SchemeNative:
		e.m.(model.StateStepper).StepState(state, t, dt, z)
	default:
		state[0] = e.stepper.Step(e.m, state[0], t, dt, z)
	}
}

// SamplePaths 顺序生成前 n 条路径的观测量轨迹 (用于导出与诊断)
//
// 编号与 Run 的样本一一对应: 第 i 条路径用流 (SeedBase, i)。
// 对偶配对不参与，导出的始终是基路径。
func (e *Engine) SamplePaths(ctx context.Context, n int) ([][]float64, error) {
	if n <= 0 || n > e.cfg.Paths {
		n = e.cfg.Paths
	}

	// 借用非对偶配置走同一条仿真代码路径
	seq := *e
	seq.cfg.Antithetic = false

	buf := newPathBuf(e.m, e.grid.Steps())
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		stream := rng.New(e.cfg.SeedBase, uint64(i))
		seq.simulate(stream, buf)

		cp := make([]float64, len(buf.pathA))
		copy(cp, buf.pathA)
		out[i] = cp
	}
	return out, nil
}
