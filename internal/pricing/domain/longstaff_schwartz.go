package domain

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultRegressionDegree 默认回归阶数 {1, X, X²}
const DefaultRegressionDegree = 2

// Estimate LSM 定价结果
type Estimate struct {
	Price    float64 // 期权价格估计
	StdError float64 // 估计的标准误
	Paths    int
	Steps    int
	Seed     uint64
}

// LSMPricer 实现了 Longstaff-Schwartz (LSM) 算法
type LSMPricer struct {
	degree  int
	workers int
	seed    uint64
	seeded  bool
	style   ExerciseStyle
	fit     polynomialFitter
}

// polynomialFitter 单步延续价值回归，默认为 FitPolynomial
type polynomialFitter func(x, y []float64, degree int, scale float64) (*RegressionFit, error)

// LSMOption LSMPricer 可选项
type LSMOption func(*LSMPricer)

// WithDegree 设置回归多项式阶数
func WithDegree(degree int) LSMOption {
	return func(p *LSMPricer) { p.degree = degree }
}

// WithSeed 固定随机种子，便于复现
func WithSeed(seed uint64) LSMOption {
	return func(p *LSMPricer) {
		p.seed = seed
		p.seeded = true
	}
}

// WithWorkers 路径生成的并发数
func WithWorkers(workers int) LSMOption {
	return func(p *LSMPricer) { p.workers = workers }
}

// WithExerciseStyle 行权方式，欧式时跳过提前行权判断
func WithExerciseStyle(style ExerciseStyle) LSMOption {
	return func(p *LSMPricer) { p.style = style }
}

// NewLSMPricer 创建 LSM 定价器，默认二阶回归、单线程、美式
func NewLSMPricer(opts ...LSMOption) *LSMPricer {
	p := &LSMPricer{
		degree:  DefaultRegressionDegree,
		workers: 1,
		style:   ExerciseAmerican,
		fit:     FitPolynomial,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Price 计算美国期权的当前公允价值
func (p *LSMPricer) Price(c OptionContract, steps, paths int) (float64, error) {
	est, err := p.Estimate(c, steps, paths)
	if err != nil {
		return 0, err
	}
	return est.Price, nil
}

// Estimate 计算价格及其标准误
func (p *LSMPricer) Estimate(c OptionContract, steps, paths int) (Estimate, error) {
	if err := c.Validate(); err != nil {
		return Estimate{}, err
	}
	if steps < 1 {
		return Estimate{}, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}
	if paths < 1 {
		return Estimate{}, fmt.Errorf("%w: got %d", ErrInvalidPaths, paths)
	}
	if p.degree < 1 {
		return Estimate{}, fmt.Errorf("%w: got %d", ErrInvalidDegree, p.degree)
	}
	if p.style != ExerciseAmerican && p.style != ExerciseEuropean {
		return Estimate{}, fmt.Errorf("%w: %q", ErrInvalidExercise, p.style)
	}

	seed := p.seed
	if !p.seeded {
		seed = rand.Uint64()
	}

	dt := c.T / float64(steps)
	df := DiscountFactor(c.R, dt)

	// 1. 生成路径
	ensemble := SimulatePaths(c, steps, paths, seed, p.workers)

	// 2. 初始化末端收益
	values := ensemble.Column(steps, nil)
	for i, s := range values {
		values[i] = c.Intrinsic(s)
	}

	// 3. 反向回归，时间步严格顺序执行
	spot := make([]float64, paths)
	xData := make([]float64, 0, paths)
	yData := make([]float64, 0, paths)
	indices := make([]int, 0, paths)
	for t := steps - 1; t > 0; t-- {
		if p.style == ExerciseEuropean {
			floats.Scale(df, values)
			continue
		}

		spot = ensemble.Column(t, spot)
		xData, yData, indices = xData[:0], yData[:0], indices[:0]
		for i, s := range spot {
			if c.InTheMoney(s) { // 仅价内路径参与回归
				xData = append(xData, s)
				yData = append(yData, values[i]*df)
				indices = append(indices, i)
			}
		}

		// 所有路径的价值折现到第 t 步
		floats.Scale(df, values)
		if len(indices) == 0 {
			continue
		}

		fit, err := p.fit(xData, yData, p.degree, c.K)
		if errors.Is(err, ErrNumericalDegeneracy) { // 该步不行权，继续向前归纳
			continue
		}
		if err != nil {
			return Estimate{}, fmt.Errorf("regression at step %d: %w", t, err)
		}

		// 比较行权价值与预测的延续价值
		for idx, i := range indices {
			if iv := c.Intrinsic(xData[idx]); iv > fit.Predict(xData[idx]) {
				values[i] = iv
			}
		}
	}

	// 4. 折现到当前并取平均
	floats.Scale(df, values)
	est := Estimate{
		Price: stat.Mean(values, nil),
		Paths: paths,
		Steps: steps,
		Seed:  seed,
	}
	if paths > 1 {
		est.StdError = stat.StdDev(values, nil) / math.Sqrt(float64(paths))
	}
	return est, nil
}
