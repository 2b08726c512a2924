package domain

import (
	"fmt"
	"math"
)

// LatticeState 二叉树 (CRR) 定价过程的完整状态
// Prices[i][j] 与 Values[i][j] 分别是第 i 步、经历 j 次下跌的节点上的标的价格和期权价值，j <= i。
type LatticeState struct {
	Steps int
	Dt    float64
	Up    float64
	Down  float64
	Prob  float64 // 风险中性上涨概率

	Prices [][]float64
	Values [][]float64
}

// PriceAt 返回节点 (j 次下跌, 第 i 步) 的标的价格
func (s *LatticeState) PriceAt(j, i int) float64 {
	return s.Prices[i][j]
}

// ValueAt 返回节点 (j 次下跌, 第 i 步) 的期权价值
func (s *LatticeState) ValueAt(j, i int) float64 {
	return s.Values[i][j]
}

// Root 根节点价值，即期权的公允价格
func (s *LatticeState) Root() float64 {
	return s.Values[0][0]
}

// BinomialPricer 二叉树定价引擎
// 无随机性，相同输入得到逐位相同的结果。
type BinomialPricer struct {
	style ExerciseStyle
}

// NewBinomialPricer 创建二叉树定价引擎，style 为空时按美式处理
func NewBinomialPricer(style ExerciseStyle) *BinomialPricer {
	if style == "" {
		style = ExerciseAmerican
	}
	return &BinomialPricer{style: style}
}

// Price 计算期权价格，回推过程只保留一层节点
func (p *BinomialPricer) Price(c OptionContract, steps int) (float64, error) {
	state, err := p.induct(c, steps, false)
	if err != nil {
		return 0, err
	}
	return state.Root(), nil
}

// PriceWithState 计算期权价格并保留整棵树
func (p *BinomialPricer) PriceWithState(c OptionContract, steps int) (*LatticeState, error) {
	return p.induct(c, steps, true)
}

func (p *BinomialPricer) induct(c OptionContract, steps int, keep bool) (*LatticeState, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}
	if p.style != ExerciseAmerican && p.style != ExerciseEuropean {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExercise, p.style)
	}

	dt := c.T / float64(steps)
	u := math.Exp(c.Sigma * math.Sqrt(dt))
	d := 1 / u
	prob := (math.Exp(c.R*dt) - d) / (u - d)
	if !(prob > 0 && prob < 1) {
		return nil, fmt.Errorf("%w: p=%v (r=%v, sigma=%v, dt=%v)", ErrArbitrage, prob, c.R, c.Sigma, dt)
	}

	state := &LatticeState{
		Steps: steps,
		Dt:    dt,
		Up:    u,
		Down:  d,
		Prob:  prob,
		Prices: [][]float64{
			{c.S0},
		},
	}
	if keep {
		state.Prices = make([][]float64, steps+1)
		state.Values = make([][]float64, steps+1)
	}

	nodePrice := func(i, j int) float64 {
		return c.S0 * math.Pow(u, float64(i-j)) * math.Pow(d, float64(j))
	}

	// 到期日收益
	values := make([]float64, steps+1)
	var prices []float64
	if keep {
		prices = make([]float64, steps+1)
	}
	for j := 0; j <= steps; j++ {
		s := nodePrice(steps, j)
		values[j] = c.Intrinsic(s)
		if keep {
			prices[j] = s
		}
	}
	if keep {
		state.Prices[steps] = prices
		state.Values[steps] = append([]float64(nil), values...)
	}

	// 逆向归纳：第 i 步只依赖第 i+1 步，values[j] 覆盖前 values[j+1] 尚未被改写
	disc := DiscountFactor(c.R, dt)
	for i := steps - 1; i >= 0; i-- {
		if keep {
			prices = make([]float64, i+1)
		}
		for j := 0; j <= i; j++ {
			continuation := disc * (prob*values[j] + (1-prob)*values[j+1])
			v := continuation
			if p.style == ExerciseAmerican || keep {
				s := nodePrice(i, j)
				if p.style == ExerciseAmerican {
					v = math.Max(continuation, c.Intrinsic(s))
				}
				if keep {
					prices[j] = s
				}
			}
			values[j] = v
		}
		if keep {
			state.Prices[i] = prices
			state.Values[i] = append([]float64(nil), values[:i+1]...)
		}
	}

	if !keep {
		state.Values = [][]float64{values[:1]}
	}
	return state, nil
}
