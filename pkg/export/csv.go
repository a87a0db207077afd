// 文件: pkg/export/csv.go
// 仿真结果 CSV 导出
//
// 两种产物:
// 1. 路径表: 每行一条路径的完整轨迹，表头是时间网格点，供画图与诊断
// 2. 汇总表: 每行一次仿真的估计结果，供跨模型/格式比对

package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"quant.com/pkg/engine"
)

// ErrNoData 没有可导出的数据
var ErrNoData = errors.New("nothing to export")

// Summary 一次仿真的汇总记录
type Summary struct {
	Model    string
	Scheme   string
	Payoff   string
	Estimate engine.Estimate
}

// WritePaths 写路径表
//
// 表头: path,t=0.0000,t=0.0833,...
// 每条路径的点数必须与网格点数一致。
func WritePaths(w io.Writer, grid engine.TimeGrid, paths [][]float64) error {
	if len(paths) == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)

	header := make([]string, 0, grid.Steps()+2)
	header = append(header, "path")
	for i := 0; i <= grid.Steps(); i++ {
		header = append(header, fmt.Sprintf("t=%.4f", grid.Time(i)))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i, p := range paths {
		if len(p) != grid.Steps()+1 {
			return fmt.Errorf("path %d has %d points, grid has %d", i, len(p), grid.Steps()+1)
		}
		row = row[:0]
		row = append(row, strconv.Itoa(i))
		for _, s := range p {
			row = append(row, strconv.FormatFloat(s, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaries 写汇总表
func WriteSummaries(w io.Writer, rows []Summary) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"model", "scheme", "payoff", "paths", "samples",
		"mean", "stderr", "ci_lo", "ci_hi", "vrf", "elapsed_ms",
	}); err != nil {
		return err
	}

	for _, r := range rows {
		lo, hi := r.Estimate.ConfidenceInterval()
		rec := []string{
			r.Model,
			r.Scheme,
			r.Payoff,
			strconv.Itoa(r.Estimate.Paths),
			strconv.Itoa(r.Estimate.Samples),
			strconv.FormatFloat(r.Estimate.Mean, 'g', -1, 64),
			strconv.FormatFloat(r.Estimate.StdErr, 'g', -1, 64),
			strconv.FormatFloat(lo, 'g', -1, 64),
			strconv.FormatFloat(hi, 'g', -1, 64),
			strconv.FormatFloat(r.Estimate.VRF, 'g', -1, 64),
			strconv.FormatInt(r.Estimate.Elapsed.Milliseconds(), 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePathsFile 导出路径表到文件
func WritePathsFile(name string, grid engine.TimeGrid, paths [][]float64) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WritePaths(f, grid, paths); err != nil {
		return err
	}
	return f.Close()
}

// WriteSummariesFile 导出汇总表到文件
func WriteSummariesFile(name string, rows []Summary) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteSummaries(f, rows); err != nil {
		return err
	}
	return f.Close()
}
