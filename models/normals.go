package models

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"
)

var rngPool = sync.Pool{
	New: func() interface{} {
		return rand.New(rand.NewSource(uint64(rand.Int63())))
	},
}

// NewRand returns a generator with an explicit seed for reproducible runs.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// GenerateStandardNormals produces n independent draws from N(0,1) using
// the Box-Muller transform. Output order is significant: the simulator
// consumes draw i as (path, step) = (i/steps, i%steps).
//
// A nil rng draws from a pooled, randomly seeded source.
func GenerateStandardNormals(n int, rng *rand.Rand) []float64 {
	if rng == nil {
		pooled := rngPool.Get().(*rand.Rand)
		defer rngPool.Put(pooled)
		rng = pooled
	}

	normals := make([]float64, n)
	for i := 0; i < n; i++ {
		u1 := rng.Float64()
		for u1 == 0 { // log(0) is undefined
			u1 = rng.Float64()
		}
		u2 := rng.Float64()
		normals[i] = math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
	}
	return normals
}
