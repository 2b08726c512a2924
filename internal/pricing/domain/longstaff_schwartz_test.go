package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLSMAgreesWithLattice(t *testing.T) {
	if testing.Short() {
		t.Skip("50k-path simulation")
	}
	c := atmPut()
	lattice, err := NewBinomialPricer(ExerciseAmerican).Price(c, 200)
	require.NoError(t, err)

	est, err := NewLSMPricer(WithSeed(42), WithWorkers(4)).Estimate(c, 50, 50_000)
	require.NoError(t, err)

	assert.InEpsilon(t, lattice, est.Price, 0.03)
	assert.Less(t, est.StdError, 0.1)
	assert.Equal(t, 50_000, est.Paths)
	assert.Equal(t, 50, est.Steps)
	assert.Equal(t, uint64(42), est.Seed)
}

func TestLSMReproducibleWithSeed(t *testing.T) {
	c := atmPut()
	a, err := NewLSMPricer(WithSeed(7)).Price(c, 20, 2_000)
	require.NoError(t, err)
	b, err := NewLSMPricer(WithSeed(7), WithWorkers(8)).Price(c, 20, 2_000)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(a), math.Float64bits(b))

	other, err := NewLSMPricer(WithSeed(8)).Price(c, 20, 2_000)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestLSMUnseededRunsDiffer(t *testing.T) {
	c := atmPut()
	pricer := NewLSMPricer()
	a, err := pricer.Estimate(c, 10, 500)
	require.NoError(t, err)
	b, err := pricer.Estimate(c, 10, 500)
	require.NoError(t, err)
	assert.NotEqual(t, a.Seed, b.Seed)
	assert.NotEqual(t, a.Price, b.Price)
}

func TestLSMStandardErrorShrinks(t *testing.T) {
	c := atmPut()
	small, err := NewLSMPricer(WithSeed(1)).Estimate(c, 20, 1_000)
	require.NoError(t, err)
	large, err := NewLSMPricer(WithSeed(1), WithWorkers(4)).Estimate(c, 20, 16_000)
	require.NoError(t, err)

	// 路径数扩大 16 倍，标准误约缩小为 1/4
	ratio := small.StdError / large.StdError
	assert.Greater(t, ratio, 2.5)
	assert.Less(t, ratio, 6.0)
}

func TestLSMAmericanPutAboveEuropean(t *testing.T) {
	c := atmPut()
	american, err := NewLSMPricer(WithSeed(3)).Price(c, 25, 10_000)
	require.NoError(t, err)
	european, err := NewLSMPricer(WithSeed(3), WithExerciseStyle(ExerciseEuropean)).Estimate(c, 25, 10_000)
	require.NoError(t, err)

	assert.Greater(t, american, european.Price)
	assert.InDelta(t, BlackScholesPrice(c), european.Price, 4*european.StdError)
}

func TestLSMDeepInTheMoneyCall(t *testing.T) {
	c := OptionContract{Type: OptionTypeCall, S0: 100, K: 1, T: 1, R: 0.05, Sigma: 0.2}
	p, err := NewLSMPricer(WithSeed(11), WithWorkers(2)).Price(c, 20, 20_000)
	require.NoError(t, err)
	assert.InDelta(t, c.S0-c.K*math.Exp(-c.R*c.T), p, 1.0)
}

func TestLSMNoPathInTheMoney(t *testing.T) {
	// 零波动率下路径确定性上行，价外看跌永远不会进入价内
	c := OptionContract{Type: OptionTypePut, S0: 100, K: 50, T: 1, R: 0.05, Sigma: 0}
	est, err := NewLSMPricer(WithSeed(5)).Estimate(c, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, est.Price)
	assert.Equal(t, 0.0, est.StdError)
}

func TestLSMNonNegative(t *testing.T) {
	for _, kind := range []OptionType{OptionTypeCall, OptionTypePut} {
		for _, k := range []float64{60, 100, 140} {
			c := OptionContract{Type: kind, S0: 100, K: k, T: 0.5, R: 0.03, Sigma: 0.25}
			p, err := NewLSMPricer(WithSeed(99)).Price(c, 10, 1_000)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, p, 0.0)
		}
	}
}

func TestLSMSinglePathAndStep(t *testing.T) {
	est, err := NewLSMPricer(WithSeed(2)).Estimate(atmPut(), 1, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, est.Price, 0.0)
	assert.Equal(t, 0.0, est.StdError)
}

func TestLSMHigherDegree(t *testing.T) {
	c := atmPut()
	p, err := NewLSMPricer(WithSeed(4), WithDegree(4)).Price(c, 20, 5_000)
	require.NoError(t, err)
	assert.InDelta(t, 6.09, p, 0.4)
}

func TestLSMInvalidArguments(t *testing.T) {
	pricer := NewLSMPricer(WithSeed(1))

	_, err := pricer.Price(OptionContract{Type: "CHOOSER", S0: 100, K: 100, T: 1, R: 0.05, Sigma: 0.2}, 10, 100)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrInvalidOptionType)

	_, err = pricer.Price(atmPut(), 0, 100)
	assert.ErrorIs(t, err, ErrInvalidSteps)

	_, err = pricer.Price(atmPut(), 10, 0)
	assert.ErrorIs(t, err, ErrInvalidPaths)

	_, err = NewLSMPricer(WithDegree(0)).Price(atmPut(), 10, 100)
	assert.ErrorIs(t, err, ErrInvalidDegree)

	_, err = NewLSMPricer(WithExerciseStyle("ASIAN")).Price(atmPut(), 10, 100)
	assert.ErrorIs(t, err, ErrInvalidExercise)
}

func TestLSMDegenerateRegressionSkipsExercise(t *testing.T) {
	c := atmPut()
	american := NewLSMPricer(WithSeed(9))
	american.fit = func([]float64, []float64, int, float64) (*RegressionFit, error) {
		return nil, ErrNumericalDegeneracy
	}

	got, err := american.Estimate(c, 20, 2000)
	require.NoError(t, err)

	// 每一步都跳过行权判断，结果退化为同一组路径上的欧式价格
	european, err := NewLSMPricer(WithSeed(9), WithExerciseStyle(ExerciseEuropean)).Estimate(c, 20, 2000)
	require.NoError(t, err)
	assert.Equal(t, european.Price, got.Price)
	assert.Equal(t, european.StdError, got.StdError)
}

func TestLSMRegressionErrorPropagates(t *testing.T) {
	pricer := NewLSMPricer(WithSeed(9))
	pricer.fit = func([]float64, []float64, int, float64) (*RegressionFit, error) {
		return nil, ErrInvalidArgument
	}

	_, err := pricer.Estimate(atmPut(), 20, 2000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "regression at step")
}
