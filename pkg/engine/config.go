// 文件: pkg/engine/config.go
// 仿真配置与校验
//
// 所有配置错误都在 New/Validate 阶段暴露:
// 路径数、步数、格式与模型的兼容性、对偶配对的奇偶性。
// 仿真一旦启动就不应再有配置类失败。

package engine

import (
	"errors"
	"fmt"
	"math"

	"quant.com/pkg/model"
	"quant.com/pkg/solver"
)

// ErrInvalidConfig 仿真配置不合法
var ErrInvalidConfig = errors.New("invalid engine config")

// 引擎自有的两种步进模式，其余格式名直接复用 solver 包
const (
	// SchemeExact 闭式精确步进，要求模型实现 ExactStepper (零离散化偏差)
	SchemeExact = "exact"

	// SchemeNative 模型原生多因子动力学，要求模型实现 StateStepper
	SchemeNative = "native"
)

// 通用格式名转发自 solver 包，配置方无需同时引入两个包
const (
	SchemeEuler    = solver.SchemeEuler
	SchemeMilstein = solver.SchemeMilstein
	SchemeSRK      = solver.SchemeSRK
)

// =============================================================================
// 默认配置
// =============================================================================

const (
	// DefaultPaths 默认路径数
	DefaultPaths = 100000

	// DefaultSteps 默认时间步数 (一年交易日)
	DefaultSteps = 252

	// DefaultSeedBase 默认基础种子
	DefaultSeedBase = 42
)

// Config 蒙特卡洛仿真配置
type Config struct {
	// Paths 路径总数 M (启用对偶时必须为偶数)
	Paths int

	// Steps 时间步数 N (Grid 非空时忽略)
	Steps int

	// Maturity 到期时间 T，单位年 (Grid 非空时忽略)
	Maturity float64

	// SeedBase 基础种子: 第 i 条路径的流种子 = SeedBase + i，
	// 与 Worker 数量无关，结果跨并行度逐位一致
	SeedBase uint64

	// Scheme 步进格式: exact / native / euler / milstein / srk
	Scheme string

	// Antithetic 启用对偶变量: 路径按 (Z, -Z) 配对，共 Paths/2 对
	Antithetic bool

	// Grid 自定义时间网格，非空时替代 (Maturity, Steps)
	Grid *TimeGrid

	// Workers 并行 Worker 数，0 表示取 CPU 核数
	Workers int
}

// DefaultConfig 返回默认配置 (GBM 精确步进)
func DefaultConfig() Config {
	return Config{
		Paths:    DefaultPaths,
		Steps:    DefaultSteps,
		Maturity: 1.0,
		SeedBase: DefaultSeedBase,
		Scheme:   SchemeExact,
	}
}

// Validate 校验配置与模型的兼容性
func (c Config) Validate(m model.Model) error {
	if c.Paths <= 0 {
		return fmt.Errorf("%w: paths=%d (must be > 0)", ErrInvalidConfig, c.Paths)
	}
	if c.Antithetic && c.Paths%2 != 0 {
		return fmt.Errorf("%w: paths=%d (antithetic pairing requires an even path count)",
			ErrInvalidConfig, c.Paths)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers=%d (must be >= 0)", ErrInvalidConfig, c.Workers)
	}

	if c.Grid == nil {
		if c.Steps <= 0 {
			return fmt.Errorf("%w: steps=%d (must be > 0)", ErrInvalidConfig, c.Steps)
		}
		if c.Maturity <= 0 || math.IsNaN(c.Maturity) || math.IsInf(c.Maturity, 0) {
			return fmt.Errorf("%w: maturity=%v (must be a positive finite number)",
				ErrInvalidConfig, c.Maturity)
		}
	} else if c.Grid.Steps() < 1 {
		return fmt.Errorf("%w: custom grid is empty", ErrInvalidConfig)
	}

	switch c.Scheme {
	case SchemeExact:
		if _, ok := m.(model.ExactStepper); !ok {
			return fmt.Errorf("%w: scheme %q requires an exact stepper, model %q does not provide one",
				ErrInvalidConfig, c.Scheme, m.Name())
		}
		if m.Factors() != 1 {
			return fmt.Errorf("%w: scheme %q only supports single-factor models, model %q has %d factors",
				ErrInvalidConfig, c.Scheme, m.Name(), m.Factors())
		}
	case SchemeNative:
		if _, ok := m.(model.StateStepper); !ok {
			return fmt.Errorf("%w: scheme %q requires native dynamics, model %q does not provide them",
				ErrInvalidConfig, c.Scheme, m.Name())
		}
	default:
		// 通用格式交给 solver 做兼容性检查 (含 Milstein 的 b' 前置条件)
		if _, err := solver.Select(c.Scheme, m); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
