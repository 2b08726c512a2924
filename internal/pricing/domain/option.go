// 包 定价服务的领域模型，包含美式期权的二叉树与最小二乘蒙特卡洛定价引擎
package domain

import (
	"fmt"
	"math"
	"strings"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// Valid 是否为可识别的期权类型
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// ParseOptionType 解析期权类型，大小写不敏感
func ParseOptionType(s string) (OptionType, error) {
	t := OptionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOptionType, s)
	}
	return t, nil
}

// ExerciseStyle 行权方式
type ExerciseStyle string

const (
	ExerciseAmerican ExerciseStyle = "AMERICAN" // 到期前任意时刻可行权
	ExerciseEuropean ExerciseStyle = "EUROPEAN" // 仅到期日可行权
)

// ParseExerciseStyle 解析行权方式，空串视为美式
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch ExerciseStyle(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ExerciseAmerican:
		return ExerciseAmerican, nil
	case ExerciseEuropean:
		return ExerciseEuropean, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidExercise, s)
	}
}

// OptionContract 期权合约
// 两个定价引擎共享的经济参数。按值传递，引擎不会修改它。
type OptionContract struct {
	Type  OptionType // 期权类型 (CALL/PUT)
	S0    float64    // 标的资产初始价格
	K     float64    // 执行价格
	T     float64    // 到期时间 (年)
	R     float64    // 无风险利率 (连续复利)
	Sigma float64    // 波动率
}

// NewOptionContract 创建并校验期权合约
func NewOptionContract(optionType OptionType, s0, k, t, r, sigma float64) (OptionContract, error) {
	c := OptionContract{
		Type:  optionType,
		S0:    s0,
		K:     k,
		T:     t,
		R:     r,
		Sigma: sigma,
	}
	if err := c.Validate(); err != nil {
		return OptionContract{}, err
	}
	return c, nil
}

// Validate 校验合约参数
func (c OptionContract) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOptionType, c.Type)
	}
	switch {
	case !finite(c.S0) || c.S0 <= 0:
		return fmt.Errorf("%w: underlying price must be positive, got %v", ErrInvalidContract, c.S0)
	case !finite(c.K) || c.K <= 0:
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidContract, c.K)
	case !finite(c.T) || c.T <= 0:
		return fmt.Errorf("%w: maturity must be positive, got %v", ErrInvalidContract, c.T)
	case !finite(c.R):
		return fmt.Errorf("%w: risk-free rate must be finite, got %v", ErrInvalidContract, c.R)
	case !finite(c.Sigma) || c.Sigma < 0:
		return fmt.Errorf("%w: volatility must be non-negative, got %v", ErrInvalidContract, c.Sigma)
	}
	return nil
}

// Intrinsic 以价格 s 立即行权的收益
func (c OptionContract) Intrinsic(s float64) float64 {
	if c.Type == OptionTypePut {
		return math.Max(c.K-s, 0)
	}
	return math.Max(s-c.K, 0)
}

// InTheMoney 价格 s 下是否处于价内
func (c OptionContract) InTheMoney(s float64) bool {
	if c.Type == OptionTypePut {
		return s < c.K
	}
	return s > c.K
}

// DiscountFactor 连续复利下 dt 年的折现因子
func DiscountFactor(r, dt float64) float64 {
	return math.Exp(-r * dt)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
