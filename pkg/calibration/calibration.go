// 文件: pkg/calibration/calibration.go
// Heston 参数校准
//
// 对一组欧式看涨市场报价做最小二乘网格搜索:
// 每个候选参数组合用蒙特卡洛引擎定价全部报价，取 RMSE 最小者。
//
// 所有候选共用同一 SeedBase (CRN)，目标函数对参数连续，
// 不会被各候选独立的蒙特卡洛噪声搅成随机排序。

package calibration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"quant.com/pkg/engine"
	"quant.com/pkg/model"
	"quant.com/pkg/payoff"
)

var (
	// ErrNoQuotes 没有可用的市场报价
	ErrNoQuotes = errors.New("no market quotes to calibrate against")

	// ErrEmptyGrid 搜索网格为空
	ErrEmptyGrid = errors.New("empty calibration grid")

	// ErrNoCandidate 网格内没有任何合法参数组合
	ErrNoCandidate = errors.New("no valid parameter candidate in grid")
)

// Quote 一条欧式看涨市场报价
type Quote struct {
	K     float64 // 执行价
	T     float64 // 期限 (年)
	Price float64 // 市场价
}

// Grid 各参数的候选值集合，做全组合搜索
type Grid struct {
	Kappa []float64
	Theta []float64
	Xi    []float64
	Rho   []float64
}

func (g Grid) size() int {
	return len(g.Kappa) * len(g.Theta) * len(g.Xi) * len(g.Rho)
}

// Config 校准时每次估值的仿真配置
type Config struct {
	Paths    int
	Steps    int
	SeedBase uint64
	Workers  int

	// FellerOnly 为真时跳过不满足 Feller 条件的候选
	FellerOnly bool
}

// Result 校准输出
type Result struct {
	Params      model.HestonParams
	RMSE        float64
	Evaluations int  // 实际估值过的候选数
	FellerOK    bool // 最优解是否满足 Feller 条件
	Elapsed     time.Duration
}

// CalibrateHeston 在网格上搜索最贴合报价的 Heston 参数
//
// base 提供 S0/V0/R (不参与搜索)，候选只替换 κ/θ/ξ/ρ。
// 域约束不合法的组合直接跳过，全部跳过时返回 ErrNoCandidate。
func CalibrateHeston(ctx context.Context, base model.HestonParams, quotes []Quote, grid Grid, cfg Config) (Result, error) {
	if len(quotes) == 0 {
		return Result{}, ErrNoQuotes
	}
	for i, q := range quotes {
		if q.K <= 0 || q.T <= 0 || q.Price <= 0 {
			return Result{}, fmt.Errorf("%w: quote %d = %+v", ErrNoQuotes, i, q)
		}
	}
	if grid.size() == 0 {
		return Result{}, ErrEmptyGrid
	}

	start := time.Now()
	best := Result{RMSE: math.Inf(1)}

	for _, kappa := range grid.Kappa {
		for _, theta := range grid.Theta {
			for _, xi := range grid.Xi {
				for _, rho := range grid.Rho {
					if ctx.Err() != nil {
						return Result{}, ctx.Err()
					}

					p := base
					p.Kappa, p.Theta, p.Xi, p.Rho = kappa, theta, xi, rho

					m, err := model.NewHestonWithScheme(p, model.AndersenQE)
					if err != nil {
						continue // 域约束不合法，跳过
					}
					if cfg.FellerOnly && !m.FellerSatisfied() {
						continue
					}

					rmse, err := rmseAgainstQuotes(ctx, m, quotes, cfg)
					if err != nil {
						return Result{}, err
					}
					best.Evaluations++

					if rmse < best.RMSE {
						best.RMSE = rmse
						best.Params = p
						best.FellerOK = m.FellerSatisfied()
					}
				}
			}
		}
	}

	if best.Evaluations == 0 {
		return Result{}, ErrNoCandidate
	}

	best.Elapsed = time.Since(start)
	log.Printf("[Calibration] evaluated %d candidates in %v: best rmse=%.6f kappa=%.3f theta=%.4f xi=%.3f rho=%.3f",
		best.Evaluations, best.Elapsed, best.RMSE,
		best.Params.Kappa, best.Params.Theta, best.Params.Xi, best.Params.Rho)
	return best, nil
}

// rmseAgainstQuotes 候选模型对全部报价的定价误差
func rmseAgainstQuotes(ctx context.Context, m *model.Heston, quotes []Quote, cfg Config) (float64, error) {
	var sse float64
	for _, q := range quotes {
		pay, err := payoff.NewEuropeanCall(q.K)
		if err != nil {
			return 0, err
		}

		eCfg := engine.Config{
			Paths:    cfg.Paths,
			Steps:    cfg.Steps,
			Maturity: q.T,
			SeedBase: cfg.SeedBase,
			Scheme:   engine.SchemeNative,
			Workers:  cfg.Workers,
		}
		e, err := engine.New(m, eCfg)
		if err != nil {
			return 0, err
		}
		est, err := e.Run(ctx, pay, nil)
		if err != nil {
			return 0, err
		}

		d := est.Mean - q.Price
		sse += d * d
	}
	return math.Sqrt(sse / float64(len(quotes))), nil
}
