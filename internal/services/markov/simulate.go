package markov

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"
)

// DefaultStartPrice is used when the model was fit from returns and the
// caller did not supply a start price.
const DefaultStartPrice = 100.0

// cumTolerance bounds accepted floating drift in a cumulative row before
// renormalization kicks in.
const cumTolerance = 1e-12

// Batch holds the independent price paths of one simulation call. Each path
// has horizon+1 points and starts at StartPrice; TerminalStates[i] is the
// chain state path i ended in.
type Batch struct {
	StartPrice     float64
	Horizon        int
	Paths          [][]float64
	TerminalStates []State
}

// Simulate generates scenarios independent price paths of the given horizon.
// startPrice <= 0 selects the model's recorded last price, or
// DefaultStartPrice when none is known. Scenarios are distributed across
// workers, each with its own seeded random stream; the model itself is only
// read.
func (m *Model) Simulate(horizon, scenarios int, startPrice float64) (*Batch, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidInput, horizon)
	}
	if scenarios <= 0 {
		return nil, fmt.Errorf("%w: scenarios must be positive, got %d", ErrInvalidInput, scenarios)
	}
	if startPrice <= 0 {
		if m.hasPrice {
			startPrice = m.lastPrice
		} else {
			startPrice = DefaultStartPrice
		}
	}

	// Row-wise cumulative distribution, computed once per call. Rows whose
	// cumulative sum drifted beyond tolerance are renormalized to exactly 1
	// so inverse-CDF sampling has no coverage gap at the top bucket.
	var cum [NumStates][NumStates]float64
	for i := 0; i < NumStates; i++ {
		c := 0.0
		for j := 0; j < NumStates; j++ {
			c += m.matrix[i][j]
			cum[i][j] = c
		}
		if total := cum[i][NumStates-1]; total > 0 && math.Abs(total-1) > cumTolerance {
			for j := 0; j < NumStates; j++ {
				cum[i][j] /= total
			}
		}
	}

	batch := &Batch{
		StartPrice:     startPrice,
		Horizon:        horizon,
		Paths:          make([][]float64, scenarios),
		TerminalStates: make([]State, scenarios),
	}

	workers := m.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > scenarios {
		workers = scenarios
	}
	baseSeed := m.cfg.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	chunk := (scenarios + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > scenarios {
			hi = scenarios
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int, seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := lo; i < hi; i++ {
				batch.Paths[i], batch.TerminalStates[i] = m.walk(rng, horizon, startPrice, cum)
			}
		}(lo, hi, baseSeed+int64(w))
	}
	wg.Wait()

	return batch, nil
}

// walk runs a single scenario: horizon state transitions with a bootstrap
// return draw per step.
func (m *Model) walk(rng *rand.Rand, horizon int, startPrice float64, cum [NumStates][NumStates]float64) ([]float64, State) {
	path := make([]float64, horizon+1)
	path[0] = startPrice
	price := startPrice
	state := m.lastState

	for step := 1; step <= horizon; step++ {
		u := rng.Float64()
		next := State(NumStates - 1)
		for j := 0; j < NumStates; j++ {
			// Inclusive compare, ties resolve to the lower index.
			if u <= cum[state][j] {
				next = State(j)
				break
			}
		}
		state = next

		// Bootstrap a return realized from the entered state. Smoothing
		// guarantees the transition but not empirical returns for rarely
		// visited states, so an empty bucket silently falls back to the
		// whole calibration series.
		src := m.buckets[state]
		if len(src) == 0 {
			src = m.returns
		}
		price *= 1 + src[rng.Intn(len(src))]
		path[step] = price
	}

	return path, state
}

// TerminalPrices extracts the final price of every path.
func (b *Batch) TerminalPrices() []float64 {
	out := make([]float64, len(b.Paths))
	for i, p := range b.Paths {
		out[i] = p[len(p)-1]
	}
	return out
}
