package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/bcdannyboy/stochvol/models"
	"github.com/bcdannyboy/stochvol/probability"
)

const (
	defaultTheta   = 0.04 // mean reversion level
	defaultKappa   = 1.0  // mean reversion speed
	defaultSigma   = 0.1  // volatility of volatility
	defaultRho     = -0.5 // asset/volatility correlation
	defaultHorizon = 1.0  // total time period, years
	defaultSteps   = 252  // time steps per path (daily data)
)

type runConfig struct {
	Model *models.StochVolModel
	Sim   probability.Config
}

// loadConfig resolves model and simulation parameters from the
// environment, falling back to the defaults above. A missing .env file
// is fine; a malformed value is not.
func loadConfig() (*runConfig, error) {
	_ = godotenv.Load() // optional

	theta, err := envFloat("STOCHVOL_THETA", defaultTheta)
	if err != nil {
		return nil, err
	}
	kappa, err := envFloat("STOCHVOL_KAPPA", defaultKappa)
	if err != nil {
		return nil, err
	}
	sigma, err := envFloat("STOCHVOL_SIGMA", defaultSigma)
	if err != nil {
		return nil, err
	}
	rho, err := envFloat("STOCHVOL_RHO", defaultRho)
	if err != nil {
		return nil, err
	}

	model := models.NewStochVolModel(theta, kappa, sigma, rho)
	v0, err := envFloat("STOCHVOL_V0", model.V0)
	if err != nil {
		return nil, err
	}
	model.V0 = v0

	horizon, err := envFloat("STOCHVOL_HORIZON", defaultHorizon)
	if err != nil {
		return nil, err
	}
	steps, err := envInt("STOCHVOL_STEPS", defaultSteps)
	if err != nil {
		return nil, err
	}
	if horizon <= 0 || steps < 1 {
		return nil, fmt.Errorf("degenerate time grid: horizon=%v steps=%d", horizon, steps)
	}

	seed, err := envInt("STOCHVOL_SEED", 0)
	if err != nil {
		return nil, err
	}
	pathMode, err := models.ParsePathMode(os.Getenv("STOCHVOL_PATH_MODE"))
	if err != nil {
		return nil, err
	}
	method, err := probability.ParseMethod(os.Getenv("STOCHVOL_METHOD"))
	if err != nil {
		return nil, err
	}

	return &runConfig{
		Model: model,
		Sim: probability.Config{
			Horizon:  horizon,
			Steps:    steps,
			Seed:     uint64(seed),
			PathMode: pathMode,
			Method:   method,
			Progress: true,
		},
	}, nil
}

func envFloat(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, raw, err)
	}
	return v, nil
}
