package models

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// PathMode controls whether volatility state carries over across path
// boundaries during simulation.
type PathMode int

const (
	// PathReset restarts the recursion at V0 for every path, so paths
	// are statistically independent.
	PathReset PathMode = iota

	// PathContinuous lets volatility drift across all paths as one long
	// recursion of numSimulations*steps increments, with only every
	// steps-th value read back as a terminal volatility. Kept for
	// reproducing legacy output; paths are not independent in this mode.
	PathContinuous
)

func (m PathMode) String() string {
	if m == PathContinuous {
		return "continuous"
	}
	return "reset"
}

func ParsePathMode(s string) (PathMode, error) {
	switch s {
	case "", "reset":
		return PathReset, nil
	case "continuous":
		return PathContinuous, nil
	}
	return 0, fmt.Errorf("unknown path mode %q (want reset or continuous)", s)
}

// StochVolModel is a mean-reverting stochastic-volatility process,
// discretized with the Euler-Maruyama scheme.
type StochVolModel struct {
	Theta float64 // mean reversion level
	Kappa float64 // mean reversion speed
	Sigma float64 // volatility of volatility
	Rho   float64 // correlation between asset returns and volatility
	V0    float64 // initial volatility
}

// NewStochVolModel seeds the initial volatility from the vol-of-vol
// parameter, an unusual but deliberate default. Set V0 directly to
// start the recursion elsewhere.
func NewStochVolModel(theta, kappa, sigma, rho float64) *StochVolModel {
	return &StochVolModel{
		Theta: theta,
		Kappa: kappa,
		Sigma: sigma,
		Rho:   rho,
		V0:    sigma,
	}
}

// SimulateVolPaths runs the recursion
//
//	v[i] = v[i-1] + kappa*(theta - v[i-1])*dt + sigma*sqrt(dt)*z[i]
//
// over numSimulations blocks of steps increments each, consuming normals
// in flat order. The result has length steps*numSimulations; path i's
// trajectory occupies indices [i*steps, (i+1)*steps).
//
// No lower bound is enforced on v; it may go negative. That is accepted
// as a model limitation and surfaced downstream at valuation time.
func (m *StochVolModel) SimulateVolPaths(t float64, steps, numSimulations int, normals []float64, mode PathMode) ([]float64, error) {
	if t <= 0 || steps < 1 {
		return nil, fmt.Errorf("%w: need t > 0 and steps >= 1, got t=%v steps=%d", ErrInvalidInput, t, steps)
	}
	if numSimulations < 0 {
		return nil, fmt.Errorf("%w: numSimulations=%d", ErrInvalidInput, numSimulations)
	}
	if len(normals) != steps*numSimulations {
		return nil, fmt.Errorf("%w: have %d draws, need %d", ErrSampleCount, len(normals), steps*numSimulations)
	}

	dt := t / float64(steps)
	sqrtDt := math.Sqrt(dt)
	paths := make([]float64, steps*numSimulations)

	vol := m.V0
	for p := 0; p < numSimulations; p++ {
		if mode == PathReset {
			vol = m.V0
		}
		for s := 0; s < steps; s++ {
			i := p*steps + s
			vol += m.Kappa*(m.Theta-vol)*dt + m.Sigma*sqrtDt*normals[i]
			paths[i] = vol
		}
	}
	return paths, nil
}

// TerminalVols extracts the last value of each steps-sized block.
func TerminalVols(paths []float64, steps int) []float64 {
	n := len(paths) / steps
	terminals := make([]float64, n)
	for i := 0; i < n; i++ {
		terminals[i] = paths[(i+1)*steps-1]
	}
	return terminals
}

// SimulateTerminalPrice jointly simulates one asset path alongside the
// volatility process, with the two Gaussian drivers correlated by Rho,
// and returns the terminal asset price. This is the path-level valuation
// used by the discounted-payoff pricing method.
func (m *StochVolModel) SimulateTerminalPrice(s0, r, t float64, steps int, rng *rand.Rand) float64 {
	dt := t / float64(steps)
	sqrtDt := math.Sqrt(dt)

	s := s0
	v := m.V0

	for i := 0; i < steps; i++ {
		z1 := rng.NormFloat64()
		z2 := rng.NormFloat64()
		z2 = m.Rho*z1 + math.Sqrt(1-m.Rho*m.Rho)*z2

		s *= math.Exp((r-0.5*v*v)*dt + v*sqrtDt*z1)
		v += m.Kappa*(m.Theta-v)*dt + m.Sigma*sqrtDt*z2
	}

	return s
}
