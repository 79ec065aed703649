package models

import (
	"fmt"
	"math"
)

const (
	maxIVIterations = 100
	ivEpsilon       = 1e-8
)

// D1D2 returns the Black-Scholes intermediates. Callers must guarantee
// s0 > 0, k > 0, t > 0 and sigma > 0.
func D1D2(s0, k, r, t, sigma float64) (float64, float64) {
	d1 := (math.Log(s0/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return d1, d2
}

// BSCallPrice prices a European call with the Black-Scholes closed form.
// Inputs outside the formula's domain return typed errors instead of
// propagating NaN.
func BSCallPrice(s0, k, r, t, sigma float64) (float64, error) {
	if err := checkPricingInputs(s0, k, t, sigma); err != nil {
		return 0, err
	}
	d1, d2 := D1D2(s0, k, r, t, sigma)
	return s0*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2), nil
}

// BSPutPrice prices a European put with the Black-Scholes closed form.
func BSPutPrice(s0, k, r, t, sigma float64) (float64, error) {
	if err := checkPricingInputs(s0, k, t, sigma); err != nil {
		return 0, err
	}
	d1, d2 := D1D2(s0, k, r, t, sigma)
	return k*math.Exp(-r*t)*normCDF(-d2) - s0*normCDF(-d1), nil
}

// BSCallZeroVolLimit is the sigma->0 limit of the call formula: the
// discounted intrinsic value. Used to value simulated terminal
// volatilities that drifted to or below zero, which the process allows.
func BSCallZeroVolLimit(s0, k, r, t float64) float64 {
	return math.Max(s0-k*math.Exp(-r*t), 0)
}

func checkPricingInputs(s0, k, t, sigma float64) error {
	if s0 <= 0 || k <= 0 || t <= 0 {
		return fmt.Errorf("%w: s0=%v k=%v t=%v", ErrInvalidInput, s0, k, t)
	}
	if sigma <= 0 {
		return fmt.Errorf("%w: sigma=%v", ErrInvalidVolatility, sigma)
	}
	return nil
}

type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// CallGreeks returns the first-order sensitivities of a European call.
func CallGreeks(s0, k, r, t, sigma float64) (Greeks, error) {
	if err := checkPricingInputs(s0, k, t, sigma); err != nil {
		return Greeks{}, err
	}
	d1, d2 := D1D2(s0, k, r, t, sigma)

	return Greeks{
		Delta: normCDF(d1),
		Gamma: normPDF(d1) / (s0 * sigma * math.Sqrt(t)),
		Theta: -(s0*normPDF(d1)*sigma)/(2*math.Sqrt(t)) - r*k*math.Exp(-r*t)*normCDF(d2),
		Vega:  s0 * normPDF(d1) * math.Sqrt(t),
		Rho:   k * t * math.Exp(-r*t) * normCDF(d2),
	}, nil
}

// ImpliedVolatility inverts the call formula with Newton's method.
func ImpliedVolatility(targetPrice, s0, k, r, t float64) (float64, error) {
	if s0 <= 0 || k <= 0 || t <= 0 {
		return 0, fmt.Errorf("%w: s0=%v k=%v t=%v", ErrInvalidInput, s0, k, t)
	}

	sigma := 0.5 // initial guess
	for i := 0; i < maxIVIterations; i++ {
		d1, d2 := D1D2(s0, k, r, t, sigma)
		price := s0*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
		vega := s0 * normPDF(d1) * math.Sqrt(t)

		diff := price - targetPrice
		if math.Abs(diff) < ivEpsilon {
			return sigma, nil
		}

		sigma = sigma - diff/vega
		if sigma <= 0 {
			sigma = 0.0001 // avoid negative volatility
		}
	}
	return 0, fmt.Errorf("%w: implied volatility did not converge for price %v", ErrInvalidVolatility, targetPrice)
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
