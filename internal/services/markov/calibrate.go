package markov

import (
	"fmt"
)

// Model is an immutable calibration result: transition matrix, per-state
// return buckets and the chain position at the end of the sample. Produced
// whole by FitFromPrices/FitFromReturns; a failed fit never yields a
// partially filled model.
type Model struct {
	cfg       Config
	matrix    [NumStates][NumStates]float64
	buckets   [NumStates][]float64
	histogram [NumStates]int
	returns   []float64
	lastState State
	lastPrice float64
	hasPrice  bool
}

// FitFromPrices computes simple returns r_t = P_t/P_{t-1} - 1 from at least
// three price points and calibrates on them. The final price is recorded as
// the default simulation start.
func FitFromPrices(cfg Config, prices []float64) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(prices) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 prices, got %d", ErrInsufficientData, len(prices))
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			return nil, fmt.Errorf("%w: non-positive price %v at index %d", ErrInvalidInput, prices[i-1], i-1)
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	if last := prices[len(prices)-1]; last <= 0 {
		return nil, fmt.Errorf("%w: non-positive price %v at index %d", ErrInvalidInput, last, len(prices)-1)
	}
	m, err := FitFromReturns(cfg, returns)
	if err != nil {
		return nil, err
	}
	m.lastPrice = prices[len(prices)-1]
	m.hasPrice = true
	return m, nil
}

// FitFromReturns calibrates directly on a return series of length >= 2.
// No start price is recorded; simulation falls back to the default.
func FitFromReturns(cfg Config, returns []float64) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(returns) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 returns, got %d", ErrInsufficientData, len(returns))
	}

	states := make([]State, len(returns))
	for i, r := range returns {
		states[i] = cfg.Discretize(r)
	}

	m := &Model{
		cfg:       cfg,
		returns:   append([]float64(nil), returns...),
		lastState: states[len(states)-1],
	}

	// Transition counts over adjacent state pairs.
	var counts [NumStates][NumStates]int
	for t := 0; t+1 < len(states); t++ {
		counts[states[t]][states[t+1]]++
	}

	// Row-stochastic matrix with Laplace smoothing. Every entry is strictly
	// positive when cfg.Smoothing > 0 and each row sums to 1 by construction.
	alpha := cfg.Smoothing
	for i := 0; i < NumStates; i++ {
		rowSum := 0
		for j := 0; j < NumStates; j++ {
			rowSum += counts[i][j]
		}
		denom := float64(rowSum) + float64(NumStates)*alpha
		if denom == 0 {
			// alpha == 0 and the state was never an origin; leave the row zero.
			continue
		}
		for j := 0; j < NumStates; j++ {
			m.matrix[i][j] = (float64(counts[i][j]) + alpha) / denom
		}
	}

	// Buckets are keyed by the state that realized each return, i.e. the
	// state the chain occupied when producing the subsequent transition.
	// Kept as-is from the reference model; do not rekey by entered state.
	for t, r := range returns {
		m.buckets[states[t]] = append(m.buckets[states[t]], r)
		m.histogram[states[t]]++
	}

	return m, nil
}

// WithLastPrice returns a copy of the model with the default simulation
// start price replaced.
func (m *Model) WithLastPrice(price float64) (*Model, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: last price must be positive, got %v", ErrConfig, price)
	}
	cp := *m
	cp.lastPrice = price
	cp.hasPrice = true
	return &cp, nil
}

// TransitionMatrix returns the row-stochastic transition matrix.
func (m *Model) TransitionMatrix() [NumStates][NumStates]float64 { return m.matrix }

// StateHistogram returns how many returns each state realized.
func (m *Model) StateHistogram() [NumStates]int { return m.histogram }

// LastState is the chain position after the final observed return.
func (m *Model) LastState() State { return m.lastState }

// LastPrice returns the recorded start price and whether one is known.
func (m *Model) LastPrice() (float64, bool) { return m.lastPrice, m.hasPrice }

// Returns exposes the calibration return series (bucket fallback source).
func (m *Model) Returns() []float64 { return m.returns }

// Bucket returns the empirical returns realized from the given state.
// A bucket may be empty when a state never originated a return.
func (m *Model) Bucket(s State) []float64 {
	if s < 0 || s >= NumStates {
		return nil
	}
	return m.buckets[s]
}
