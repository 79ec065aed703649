package probability

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/bcdannyboy/stochvol/models"
	"gonum.org/v1/gonum/floats"
)

const pathBatchSize = 1000

// ErrNoSimulations signals a degenerate run where averaging is undefined.
var ErrNoSimulations = errors.New("number of simulations must be at least 1")

// Method selects how a simulated path is turned into a valuation.
type Method int

const (
	// MethodClosedForm feeds each path's terminal volatility into the
	// Black-Scholes closed form. The formula assumes constant
	// volatility, so plugging a simulated terminal value into it is a
	// known approximation of this estimator.
	MethodClosedForm Method = iota

	// MethodPayoff jointly simulates a correlated asset path and values
	// the discounted terminal call payoff. This is the variant that
	// actually consumes the Rho parameter.
	MethodPayoff
)

func (m Method) String() string {
	if m == MethodPayoff {
		return "payoff"
	}
	return "closed-form"
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "closed-form":
		return MethodClosedForm, nil
	case "payoff":
		return MethodPayoff, nil
	}
	return 0, fmt.Errorf("unknown pricing method %q (want closed-form or payoff)", s)
}

// Config carries the simulation knobs that stay fixed for a run.
type Config struct {
	Horizon  float64 // total time period in years
	Steps    int     // time steps per path
	NumSims  int     // number of Monte Carlo paths
	Seed     uint64  // 0 draws a fresh seed per run
	PathMode models.PathMode
	Method   Method
	Workers  int  // 0 sizes from the machine's CPU count
	Progress bool // render an mpb progress bar over paths
}

// Pricer composes the pipeline: normal variate generation, volatility
// path simulation, per-path valuation and averaging.
type Pricer struct {
	Model *models.StochVolModel
	Cfg   Config
}

func NewPricer(model *models.StochVolModel, cfg Config) *Pricer {
	if cfg.Horizon == 0 {
		cfg.Horizon = 1.0
	}
	if cfg.Steps == 0 {
		cfg.Steps = 252
	}
	return &Pricer{Model: model, Cfg: cfg}
}

// PriceResult is the averaged estimate plus the distribution of the
// per-path valuations it was averaged from.
type PriceResult struct {
	Price      float64 `json:"price"`
	NumSims    int     `json:"num_simulations"`
	Steps      int     `json:"steps"`
	Horizon    float64 `json:"horizon"`
	Seed       uint64  `json:"seed"`
	PathMode   string  `json:"path_mode"`
	Method     string  `json:"method"`
	Valuations Summary `json:"valuations"`
}

// Price runs the full pipeline for one set of market inputs.
func (p *Pricer) Price(s0, k, r float64) (*PriceResult, error) {
	if p.Cfg.NumSims < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoSimulations, p.Cfg.NumSims)
	}

	seed := p.Cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var (
		valuations []float64
		err        error
	)
	switch p.Cfg.Method {
	case MethodPayoff:
		valuations, err = p.payoffValuations(s0, k, r, seed)
	default:
		valuations, err = p.closedFormValuations(s0, k, r, seed)
	}
	if err != nil {
		return nil, err
	}

	summary, err := Summarize(valuations)
	if err != nil {
		return nil, fmt.Errorf("summarizing valuations: %w", err)
	}

	return &PriceResult{
		Price:      floats.Sum(valuations) / float64(len(valuations)),
		NumSims:    p.Cfg.NumSims,
		Steps:      p.Cfg.Steps,
		Horizon:    p.Cfg.Horizon,
		Seed:       seed,
		PathMode:   p.Cfg.PathMode.String(),
		Method:     p.Cfg.Method.String(),
		Valuations: summary,
	}, nil
}

// closedFormValuations simulates the volatility process and values each
// path's terminal volatility with the closed form.
func (p *Pricer) closedFormValuations(s0, k, r float64, seed uint64) ([]float64, error) {
	n, steps := p.Cfg.NumSims, p.Cfg.Steps
	normals := models.GenerateStandardNormals(n*steps, models.NewRand(seed))

	if p.Cfg.PathMode == models.PathContinuous {
		// Cross-path state dependence forces one sequential recursion.
		paths, err := p.Model.SimulateVolPaths(p.Cfg.Horizon, steps, n, normals, models.PathContinuous)
		if err != nil {
			return nil, err
		}
		return p.valueTerminals(s0, k, r, models.TerminalVols(paths, steps))
	}

	// Independent paths fan out across workers, each consuming its own
	// contiguous block of the sample sequence.
	valuations := make([]float64, n)
	errs := make([]error, n)

	bar, wait := p.newBar(n)
	defer wait()

	pathCh := make(chan int, pathBatchSize)
	var wg sync.WaitGroup
	for w := 0; w < p.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range pathCh {
				block := normals[i*steps : (i+1)*steps]
				path, err := p.Model.SimulateVolPaths(p.Cfg.Horizon, steps, 1, block, models.PathReset)
				if err != nil {
					errs[i] = fmt.Errorf("path %d: %w", i, err)
					continue
				}
				price, err := p.valueTerminal(s0, k, r, path[steps-1])
				if err != nil {
					errs[i] = fmt.Errorf("path %d: %w", i, err)
					continue
				}
				valuations[i] = price
				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}
	for i := 0; i < n; i++ {
		pathCh <- i
	}
	close(pathCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return valuations, nil
}

func (p *Pricer) valueTerminals(s0, k, r float64, terminals []float64) ([]float64, error) {
	bar, wait := p.newBar(len(terminals))
	defer wait()

	valuations := make([]float64, len(terminals))
	for i, sigmaT := range terminals {
		price, err := p.valueTerminal(s0, k, r, sigmaT)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		valuations[i] = price
		if bar != nil {
			bar.Increment()
		}
	}
	return valuations, nil
}

// valueTerminal prices one path's terminal volatility. The process puts
// no lower bound on v, so a terminal at or below zero is valued at the
// sigma->0 limit of the formula rather than treated as a fatal input.
func (p *Pricer) valueTerminal(s0, k, r, sigmaT float64) (float64, error) {
	if sigmaT <= 0 {
		if s0 <= 0 || k <= 0 {
			return 0, fmt.Errorf("%w: s0=%v k=%v", models.ErrInvalidInput, s0, k)
		}
		return models.BSCallZeroVolLimit(s0, k, r, p.Cfg.Horizon), nil
	}
	return models.BSCallPrice(s0, k, r, p.Cfg.Horizon, sigmaT)
}

// payoffValuations jointly simulates asset and volatility per path and
// returns discounted terminal call payoffs. Each path derives its own
// generator from the run seed so the fan-out stays deterministic.
func (p *Pricer) payoffValuations(s0, k, r float64, seed uint64) ([]float64, error) {
	if s0 <= 0 || k <= 0 {
		return nil, fmt.Errorf("%w: s0=%v k=%v", models.ErrInvalidInput, s0, k)
	}

	n := p.Cfg.NumSims
	discount := math.Exp(-r * p.Cfg.Horizon)
	valuations := make([]float64, n)

	bar, wait := p.newBar(n)
	defer wait()

	pathCh := make(chan int, pathBatchSize)
	var wg sync.WaitGroup
	for w := 0; w < p.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range pathCh {
				rng := models.NewRand(seed + uint64(i) + 1)
				sT := p.Model.SimulateTerminalPrice(s0, r, p.Cfg.Horizon, p.Cfg.Steps, rng)
				valuations[i] = discount * math.Max(sT-k, 0)
				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}
	for i := 0; i < n; i++ {
		pathCh <- i
	}
	close(pathCh)
	wg.Wait()

	return valuations, nil
}

func (p *Pricer) workers() int {
	if p.Cfg.Workers > 0 {
		return p.Cfg.Workers
	}
	if counts, err := cpu.Counts(true); err == nil && counts > 0 {
		return counts
	}
	return runtime.NumCPU()
}

func (p *Pricer) newBar(total int) (*mpb.Bar, func()) {
	if !p.Cfg.Progress {
		return nil, func() {}
	}
	prog := mpb.New(mpb.WithWidth(64))
	bar := prog.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Simulating"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)
	return bar, func() {
		bar.Abort(true) // no-op when the bar already completed
		prog.Wait()
	}
}
