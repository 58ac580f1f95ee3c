package models

import "time"

// ModelInfo is the externally visible view of a calibrated chain model.
type ModelInfo struct {
	Symbol       string      `json:"symbol"`
	States       []string    `json:"states"`
	Matrix       [][]float64 `json:"matrix"`    // row-stochastic, Matrix[i][j] = P(next=j | cur=i)
	Histogram    []int       `json:"histogram"` // returns realized per state
	LastState    string      `json:"last_state"`
	LastPrice    float64     `json:"last_price,omitempty"`
	HasLastPrice bool        `json:"has_last_price"`
	SampleSize   int         `json:"sample_size"` // calibration returns
	CalibratedAt time.Time   `json:"calibrated_at"`
}

// SimulationResult is a Monte Carlo batch prepared for callers. Paths are
// only populated when explicitly requested; terminal prices always are.
type SimulationResult struct {
	Symbol         string      `json:"symbol"`
	Timestamp      time.Time   `json:"timestamp"`
	StartPrice     float64     `json:"start_price"`
	Horizon        int         `json:"horizon"`
	Scenarios      int         `json:"scenarios"`
	TerminalPrices []float64   `json:"terminal_prices"`
	TerminalStates []string    `json:"terminal_states"`
	Paths          [][]float64 `json:"paths,omitempty"`
}

// RiskReport carries the summary metrics of one simulation batch.
// StdReturn is nil when the batch was too small to estimate dispersion.
type RiskReport struct {
	Symbol        string    `json:"symbol"`
	Timestamp     time.Time `json:"timestamp"`
	Horizon       int       `json:"horizon"`
	Scenarios     int       `json:"scenarios"`
	StartPrice    float64   `json:"start_price"`
	MedianPrice   float64   `json:"median_price"`
	ProbNegReturn float64   `json:"prob_neg_return"`
	VaR5Price     float64   `json:"var5_price"`
	P95Price      float64   `json:"p95_price"`
	MeanReturn    float64   `json:"mean_return"`
	StdReturn     *float64  `json:"std_return"`
}
