package probability

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Summary describes the distribution of per-path valuations behind an
// averaged price estimate.
type Summary struct {
	StdDev float64 `json:"std_dev"`
	StdErr float64 `json:"std_err"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P05    float64 `json:"p05"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

func Summarize(valuations []float64) (Summary, error) {
	data := stats.Float64Data(valuations)

	sd, err := stats.StandardDeviation(data)
	if err != nil {
		return Summary{}, fmt.Errorf("standard deviation: %w", err)
	}
	min, err := stats.Min(data)
	if err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	max, err := stats.Max(data)
	if err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}
	// Nearest-rank percentiles stay defined for any n >= 1, unlike the
	// interpolated variant which rejects small inputs.
	p05, err := stats.PercentileNearestRank(data, 5)
	if err != nil {
		return Summary{}, fmt.Errorf("p05: %w", err)
	}
	median, err := stats.Median(data)
	if err != nil {
		return Summary{}, fmt.Errorf("median: %w", err)
	}
	p95, err := stats.PercentileNearestRank(data, 95)
	if err != nil {
		return Summary{}, fmt.Errorf("p95: %w", err)
	}

	return Summary{
		StdDev: sd,
		StdErr: sd / math.Sqrt(float64(len(valuations))),
		Min:    min,
		Max:    max,
		P05:    p05,
		Median: median,
		P95:    p95,
	}, nil
}
