package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// epsilon float64 机器精度
var epsilon = math.Nextafter(1, 2) - 1

// RegressionFit 单个时间步的延续价值回归结果
// 基函数为 {1, x, x², ..., x^degree}，x 先按 Scale 归一化以改善条件数。
type RegressionFit struct {
	Coefficients []float64
	Scale        float64
	Rank         int
}

// FitPolynomial 以普通最小二乘拟合 y ≈ Σ c_k (x/scale)^k
// 矩阵秩亏时取 SVD 截断秩下的最小范数解。
func FitPolynomial(x, y []float64, degree int, scale float64) (*RegressionFit, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDegree, degree)
	}
	if len(x) != len(y) || len(x) == 0 {
		return nil, fmt.Errorf("%w: %d samples, %d targets", ErrInvalidArgument, len(x), len(y))
	}
	if scale <= 0 || !finite(scale) {
		scale = 1
	}

	n, m := len(x), degree+1
	basis := mat.NewDense(n, m, nil)
	for i, xi := range x {
		row := basis.RawRowView(i)
		v, u := 1.0, xi/scale
		for k := range row {
			row[k] = v
			v *= u
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(basis, mat.SVDThin); !ok {
		return nil, ErrNumericalDegeneracy
	}

	fit := &RegressionFit{
		Coefficients: make([]float64, m),
		Scale:        scale,
	}
	fit.Rank = svd.Rank(epsilon * float64(max(n, m)))
	if fit.Rank == 0 {
		return fit, nil
	}

	var coef mat.VecDense
	svd.SolveVecTo(&coef, mat.NewVecDense(n, y), fit.Rank)
	for k := range fit.Coefficients {
		fit.Coefficients[k] = coef.AtVec(k)
	}
	return fit, nil
}

// Predict 在 x 处求拟合多项式的值 (Horner)
func (f *RegressionFit) Predict(x float64) float64 {
	u := x / f.Scale
	v := 0.0
	for k := len(f.Coefficients) - 1; k >= 0; k-- {
		v = v*u + f.Coefficients[k]
	}
	return v
}
