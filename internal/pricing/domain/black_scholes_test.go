package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlackScholesPrice(t *testing.T) {
	call := OptionContract{Type: OptionTypeCall, S0: 100, K: 100, T: 1, R: 0.05, Sigma: 0.2}
	put := call
	put.Type = OptionTypePut

	assert.InDelta(t, 10.4506, BlackScholesPrice(call), 1e-4)
	assert.InDelta(t, 5.5735, BlackScholesPrice(put), 1e-4)
	assert.InDelta(t, call.S0-call.K*math.Exp(-call.R*call.T), BlackScholesPrice(call)-BlackScholesPrice(put), 1e-10)
}

func TestBlackScholesZeroVolatility(t *testing.T) {
	call := OptionContract{Type: OptionTypeCall, S0: 100, K: 90, T: 1, R: 0.05, Sigma: 0}
	assert.InDelta(t, 100-90*math.Exp(-0.05), BlackScholesPrice(call), 1e-12)

	put := call
	put.Type = OptionTypePut
	assert.Equal(t, 0.0, BlackScholesPrice(put))
}
