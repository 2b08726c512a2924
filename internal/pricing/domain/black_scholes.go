package domain

import (
	"math"
)

// BlackScholesPrice 欧式期权的 Black-Scholes 解析价格
// 作为美式价格的参照，用于计算提前行权溢价
func BlackScholesPrice(c OptionContract) float64 {
	discountedStrike := c.K * DiscountFactor(c.R, c.T)

	// 零波动率时退化为远期内在价值
	if c.Sigma == 0 {
		if c.Type == OptionTypePut {
			return math.Max(discountedStrike-c.S0, 0)
		}
		return math.Max(c.S0-discountedStrike, 0)
	}

	sqrtT := math.Sqrt(c.T)
	d1 := (math.Log(c.S0/c.K) + (c.R+0.5*c.Sigma*c.Sigma)*c.T) / (c.Sigma * sqrtT)
	d2 := d1 - c.Sigma*sqrtT

	if c.Type == OptionTypePut {
		return discountedStrike*normCdf(-d2) - c.S0*normCdf(-d1)
	}
	return c.S0*normCdf(d1) - discountedStrike*normCdf(d2)
}

// normCdf 标准正态分布累积分布函数
func normCdf(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
