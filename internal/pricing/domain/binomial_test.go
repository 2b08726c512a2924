package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atmPut() OptionContract {
	return OptionContract{Type: OptionTypePut, S0: 100, K: 100, T: 1, R: 0.05, Sigma: 0.2}
}

func TestBinomialDeterministic(t *testing.T) {
	c := OptionContract{Type: OptionTypeCall, S0: 100, K: 100, T: 1, R: 0.07, Sigma: 0.24}
	pricer := NewBinomialPricer(ExerciseAmerican)

	first, err := pricer.Price(c, 100)
	require.NoError(t, err)
	for range 5 {
		again, err := pricer.Price(c, 100)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(first), math.Float64bits(again))
	}

	// 整棵树与滚动数组的结果逐位一致
	state, err := pricer.PriceWithState(c, 100)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(first), math.Float64bits(state.Root()))

	// 无红利美式看涨不会提前行权，应接近 Black-Scholes
	assert.InDelta(t, BlackScholesPrice(c), first, 0.1)
}

func TestBinomialRecombiningLattice(t *testing.T) {
	c := atmPut()
	state, err := NewBinomialPricer(ExerciseAmerican).PriceWithState(c, 20)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, state.Up*state.Down, 1e-15)
	assert.Greater(t, state.Prob, 0.0)
	assert.Less(t, state.Prob, 1.0)

	for i := 0; i <= state.Steps; i++ {
		require.Len(t, state.Prices[i], i+1)
		require.Len(t, state.Values[i], i+1)
		for j := 0; j <= i; j++ {
			want := c.S0 * math.Pow(state.Up, float64(i-2*j))
			assert.InEpsilon(t, want, state.PriceAt(j, i), 1e-12)
			assert.GreaterOrEqual(t, state.ValueAt(j, i), c.Intrinsic(state.PriceAt(j, i)))
		}
	}
	// 先涨后跌与先跌后涨到达同一价格
	assert.InEpsilon(t, c.S0, state.PriceAt(1, 2), 1e-12)
}

func TestBinomialAmericanPutAboveEuropean(t *testing.T) {
	c := atmPut()
	american, err := NewBinomialPricer(ExerciseAmerican).Price(c, 200)
	require.NoError(t, err)
	european, err := NewBinomialPricer(ExerciseEuropean).Price(c, 200)
	require.NoError(t, err)

	assert.Greater(t, american, european)
	assert.InDelta(t, BlackScholesPrice(c), european, 0.02)
	assert.InDelta(t, 6.09, american, 0.02)
}

func TestBinomialEuropeanPutCallParity(t *testing.T) {
	put := OptionContract{Type: OptionTypePut, S0: 105, K: 100, T: 0.75, R: 0.04, Sigma: 0.3}
	call := put
	call.Type = OptionTypeCall

	pricer := NewBinomialPricer(ExerciseEuropean)
	p, err := pricer.Price(put, 150)
	require.NoError(t, err)
	c, err := pricer.Price(call, 150)
	require.NoError(t, err)

	assert.InDelta(t, put.S0-put.K*math.Exp(-put.R*put.T), c-p, 1e-9)
}

func TestBinomialAmericanCallEqualsEuropean(t *testing.T) {
	c := OptionContract{Type: OptionTypeCall, S0: 90, K: 100, T: 2, R: 0.03, Sigma: 0.25}
	american, err := NewBinomialPricer(ExerciseAmerican).Price(c, 300)
	require.NoError(t, err)
	european, err := NewBinomialPricer(ExerciseEuropean).Price(c, 300)
	require.NoError(t, err)
	assert.InDelta(t, european, american, 1e-12)
}

func TestBinomialConvergence(t *testing.T) {
	c := atmPut()
	pricer := NewBinomialPricer(ExerciseAmerican)
	prices := map[int]float64{}
	for _, n := range []int{50, 100, 200, 400, 500} {
		p, err := pricer.Price(c, n)
		require.NoError(t, err)
		prices[n] = p
	}

	coarse := math.Abs(prices[100] - prices[50])
	fine := math.Abs(prices[400] - prices[200])
	assert.Less(t, fine, coarse)
	assert.InDelta(t, prices[500], prices[400], 0.01)
	assert.InDelta(t, prices[500], prices[50], 0.05)
}

func TestBinomialDeepInTheMoneyCall(t *testing.T) {
	c := OptionContract{Type: OptionTypeCall, S0: 100, K: 1, T: 1, R: 0.05, Sigma: 0.2}
	p, err := NewBinomialPricer(ExerciseAmerican).Price(c, 200)
	require.NoError(t, err)
	assert.InDelta(t, c.S0-c.K*math.Exp(-c.R*c.T), p, 1e-6)
}

func TestBinomialNonNegative(t *testing.T) {
	pricer := NewBinomialPricer(ExerciseAmerican)
	for _, kind := range []OptionType{OptionTypeCall, OptionTypePut} {
		for _, k := range []float64{1, 50, 100, 150, 1000} {
			for _, r := range []float64{-0.01, 0, 0.05} {
				c := OptionContract{Type: kind, S0: 100, K: k, T: 0.5, R: r, Sigma: 0.3}
				p, err := pricer.Price(c, 64)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, p, 0.0)
				assert.GreaterOrEqual(t, p, c.Intrinsic(c.S0))
			}
		}
	}
}

func TestBinomialInvalidArguments(t *testing.T) {
	pricer := NewBinomialPricer(ExerciseAmerican)

	_, err := pricer.Price(OptionContract{Type: "DIGITAL", S0: 100, K: 100, T: 1, R: 0.05, Sigma: 0.2}, 100)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrInvalidOptionType)

	_, err = pricer.Price(atmPut(), 0)
	assert.ErrorIs(t, err, ErrInvalidSteps)

	// 利率远高于波动率，风险中性概率 > 1
	_, err = pricer.Price(OptionContract{Type: OptionTypePut, S0: 100, K: 100, T: 1, R: 0.5, Sigma: 0.01}, 10)
	assert.ErrorIs(t, err, ErrArbitrage)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// 零波动率时 u = d，概率无定义
	_, err = pricer.Price(OptionContract{Type: OptionTypePut, S0: 100, K: 100, T: 1, R: 0.05, Sigma: 0}, 10)
	assert.ErrorIs(t, err, ErrArbitrage)

	_, err = NewBinomialPricer("BERMUDAN").Price(atmPut(), 10)
	assert.ErrorIs(t, err, ErrInvalidExercise)
}
