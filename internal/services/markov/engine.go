package markov

import (
	"fmt"
	"sync"
)

// Engine pairs a validated Config with the current calibrated model. Fits
// build a complete new model before swapping it in, so a failed fit leaves
// the previous calibration untouched. Safe for concurrent use.
type Engine struct {
	cfg Config

	mu    sync.RWMutex
	model *Model
}

// NewEngine validates cfg once and returns an uncalibrated engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// FitFromPrices calibrates from a price series, replacing any prior model.
func (e *Engine) FitFromPrices(prices []float64) error {
	m, err := FitFromPrices(e.cfg, prices)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.model = m
	e.mu.Unlock()
	return nil
}

// FitFromReturns calibrates from a return series, replacing any prior model.
func (e *Engine) FitFromReturns(returns []float64) error {
	m, err := FitFromReturns(e.cfg, returns)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.model = m
	e.mu.Unlock()
	return nil
}

// SetLastPrice overrides the default simulation start price.
func (e *Engine) SetLastPrice(price float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return ErrNotCalibrated
	}
	m, err := e.model.WithLastPrice(price)
	if err != nil {
		return err
	}
	e.model = m
	return nil
}

// Model returns the current calibrated model, or false if none exists.
func (e *Engine) Model() (*Model, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model, e.model != nil
}

// TransitionMatrix returns the calibrated matrix, or the zero matrix when
// uncalibrated.
func (e *Engine) TransitionMatrix() [NumStates][NumStates]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return [NumStates][NumStates]float64{}
	}
	return e.model.TransitionMatrix()
}

// StateHistogram returns per-state return counts, zero when uncalibrated.
func (e *Engine) StateHistogram() [NumStates]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return [NumStates]int{}
	}
	return e.model.StateHistogram()
}

// Simulate runs a Monte Carlo batch against the current model.
func (e *Engine) Simulate(horizon, scenarios int, startPrice float64) (*Batch, error) {
	m, ok := e.Model()
	if !ok {
		return nil, ErrNotCalibrated
	}
	return m.Simulate(horizon, scenarios, startPrice)
}
