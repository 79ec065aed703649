package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestBSCallPriceReferenceCase(t *testing.T) {
	// Classic textbook case: S=100, K=100, r=0.05, sigma=0.2, T=1.
	call, err := BSCallPrice(100, 100, 0.05, 1, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 10.450583572185565, call, 1e-9)

	put, err := BSPutPrice(100, 100, 0.05, 1, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 5.573526022256971, put, 1e-9)
}

func TestBSPutCallParity(t *testing.T) {
	s0, k, r, sigma, horizon := 105.0, 95.0, 0.03, 0.25, 0.5

	call, err := BSCallPrice(s0, k, r, horizon, sigma)
	require.NoError(t, err)
	put, err := BSPutPrice(s0, k, r, horizon, sigma)
	require.NoError(t, err)

	assert.InDelta(t, s0-k*math.Exp(-r*horizon), call-put, 1e-9)
}

func TestD1D2SymmetryAtTheMoney(t *testing.T) {
	// For S0=K and r=0, d1 and d2 are +/- sigma*sqrt(T)/2.
	sigma, horizon := 0.3, 2.0
	d1, d2 := D1D2(100, 100, 0, horizon, sigma)

	half := sigma * math.Sqrt(horizon) / 2
	assert.InDelta(t, half, d1, 1e-12)
	assert.InDelta(t, -half, d2, 1e-12)
	assert.InDelta(t, -d2, d1, 1e-12)
}

func TestBSCallPriceInvalidInputs(t *testing.T) {
	_, err := BSCallPrice(-1, 100, 0.05, 1, 0.2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = BSCallPrice(100, 0, 0.05, 1, 0.2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = BSCallPrice(100, 100, 0.05, 0, 0.2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = BSCallPrice(100, 100, 0.05, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidVolatility)

	_, err = BSCallPrice(100, 100, 0.05, 1, -0.2)
	assert.ErrorIs(t, err, ErrInvalidVolatility)
}

func TestBSCallZeroVolLimitIsDiscountedIntrinsic(t *testing.T) {
	// sigma->0: the call is worth max(S - K*e^{-rT}, 0) exactly.
	assert.InDelta(t, 100-90*math.Exp(-0.05), BSCallZeroVolLimit(100, 90, 0.05, 1), 1e-12)
	assert.Equal(t, 0.0, BSCallZeroVolLimit(100, 120, 0.05, 1))
	assert.Equal(t, 0.0, BSCallZeroVolLimit(80, 100, 0, 1))
}

func TestNormCDFMatchesGonum(t *testing.T) {
	std := distuv.Normal{Mu: 0, Sigma: 1}
	for _, x := range []float64{-3, -1.5, -0.2, 0, 0.7, 2.4} {
		assert.InDelta(t, std.CDF(x), normCDF(x), 1e-12, "x=%v", x)
	}
}

func TestCallGreeksSanity(t *testing.T) {
	greeks, err := CallGreeks(100, 100, 0.05, 1, 0.2)
	require.NoError(t, err)

	assert.Greater(t, greeks.Delta, 0.0)
	assert.Less(t, greeks.Delta, 1.0)
	assert.Greater(t, greeks.Gamma, 0.0)
	assert.Greater(t, greeks.Vega, 0.0)
	assert.Less(t, greeks.Theta, 0.0)
	assert.InDelta(t, 0.6368306511756191, greeks.Delta, 1e-9)
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	s0, k, r, horizon := 100.0, 110.0, 0.02, 0.75
	price, err := BSCallPrice(s0, k, r, horizon, 0.35)
	require.NoError(t, err)

	iv, err := ImpliedVolatility(price, s0, k, r, horizon)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, iv, 1e-6)
}
