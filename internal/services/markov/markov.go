// Package markov calibrates a three-state Markov chain over historical
// returns and generates bootstrap Monte Carlo price paths from it.
package markov

import (
	"errors"
	"fmt"
)

// State is a discretized daily return regime.
type State int

const (
	StateDown State = iota
	StateFlat
	StateUp
)

// NumStates is the fixed cardinality of the state space.
const NumStates = 3

func (s State) String() string {
	switch s {
	case StateDown:
		return "down"
	case StateFlat:
		return "flat"
	case StateUp:
		return "up"
	default:
		return "unknown"
	}
}

// Error taxonomy. Callers branch on these with errors.Is; the API layer
// maps them to HTTP statuses.
var (
	// ErrConfig indicates invalid model configuration (thresholds, smoothing).
	ErrConfig = errors.New("invalid model configuration")
	// ErrInsufficientData indicates too few prices/returns to calibrate.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidInput indicates a bad value in otherwise well-formed input
	// (zero price in a series, non-positive horizon or scenario count).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotCalibrated indicates simulation was requested before a successful fit.
	ErrNotCalibrated = errors.New("model not calibrated")
)

// Config holds calibration and simulation parameters.
// Validated once at engine construction.
type Config struct {
	DownThreshold float64 // returns below this are Down
	UpThreshold   float64 // returns above this are Up
	Smoothing     float64 // Laplace smoothing constant, >= 0
	Seed          int64   // 0 means time-based seeding
	Workers       int     // scenario workers, <= 0 means GOMAXPROCS
}

// DefaultConfig returns the standard +-1% thresholds with add-one smoothing.
func DefaultConfig() Config {
	return Config{
		DownThreshold: -0.01,
		UpThreshold:   0.01,
		Smoothing:     1.0,
	}
}

// Validate checks threshold ordering and smoothing sign.
func (c Config) Validate() error {
	if c.DownThreshold >= c.UpThreshold {
		return fmt.Errorf("%w: down threshold %v must be below up threshold %v",
			ErrConfig, c.DownThreshold, c.UpThreshold)
	}
	if c.Smoothing < 0 {
		return fmt.Errorf("%w: smoothing must be >= 0, got %v", ErrConfig, c.Smoothing)
	}
	return nil
}

// Discretize maps a single return to its state. Returns exactly equal to a
// threshold are Flat; the strict inequalities are load-bearing and must not
// be widened.
func (c Config) Discretize(r float64) State {
	switch {
	case r < c.DownThreshold:
		return StateDown
	case r > c.UpThreshold:
		return StateUp
	default:
		return StateFlat
	}
}
