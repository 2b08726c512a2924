package domain

import (
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// PathEnsemble 几何布朗运动下的模拟价格路径
// 每行一条路径，第 0 列恒为 S0。
type PathEnsemble struct {
	prices *mat.Dense
}

// SimulatePaths 按对数正态精确转移生成 paths 条、每条 steps 步的价格路径
// 第 i 条路径使用由 (seed, i) 派生的独立随机流，结果与 workers 无关。
func SimulatePaths(c OptionContract, steps, paths int, seed uint64, workers int) *PathEnsemble {
	dt := c.T / float64(steps)
	drift := (c.R - 0.5*c.Sigma*c.Sigma) * dt
	vol := c.Sigma * math.Sqrt(dt)

	prices := mat.NewDense(paths, steps+1, nil)
	simulate := func(from, to int) {
		for i := from; i < to; i++ {
			rng := rand.New(rand.NewPCG(seed, splitmix64(seed^uint64(i))))
			row := prices.RawRowView(i)
			row[0] = c.S0
			for t := 1; t <= steps; t++ {
				row[t] = row[t-1] * math.Exp(drift+vol*rng.NormFloat64())
			}
		}
	}

	if workers <= 1 || paths < 2*workers {
		simulate(0, paths)
		return &PathEnsemble{prices: prices}
	}

	// 各 worker 写入互不重叠的行
	var g errgroup.Group
	chunk := (paths + workers - 1) / workers
	for from := 0; from < paths; from += chunk {
		to := min(from+chunk, paths)
		g.Go(func() error {
			simulate(from, to)
			return nil
		})
	}
	_ = g.Wait()
	return &PathEnsemble{prices: prices}
}

// Paths 路径数
func (e *PathEnsemble) Paths() int {
	r, _ := e.prices.Dims()
	return r
}

// Steps 时间步数
func (e *PathEnsemble) Steps() int {
	_, c := e.prices.Dims()
	return c - 1
}

// At 第 path 条路径在第 t 步的价格
func (e *PathEnsemble) At(path, t int) float64 {
	return e.prices.At(path, t)
}

// Column 第 t 步所有路径的价格，写入 dst 并返回
func (e *PathEnsemble) Column(t int, dst []float64) []float64 {
	if len(dst) != e.Paths() {
		dst = make([]float64, e.Paths())
	}
	return mat.Col(dst, t, e.prices)
}

// splitmix64 将路径序号打散为互不相关的随机流种子
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
