package service

import (
	"context"

	"FinSim/internal/domain/models"
)

// RiskModeler calibrates per-symbol chain models and runs Monte Carlo
// simulations against them.
type RiskModeler interface {
	// CalibratePayload fits from caller-supplied prices or returns.
	CalibratePayload(ctx context.Context, req *models.CalibrateRequest) (models.ModelInfo, error)
	// Fit calibrates a symbol from the latest n stored candles.
	Fit(ctx context.Context, symbol string, n int) (models.ModelInfo, error)
	// Simulate generates price paths for a calibrated (or lazily fit) symbol.
	Simulate(ctx context.Context, req *models.SimulateRequest) (models.SimulationResult, error)
	// Risk runs the full calibrate-simulate-summarize pipeline.
	Risk(ctx context.Context, req *models.RiskRequest) (models.RiskReport, error)
	// ModelInfo returns the current calibration for a symbol.
	ModelInfo(ctx context.Context, symbol string) (models.ModelInfo, error)
}
