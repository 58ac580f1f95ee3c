package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"FinSim/internal/domain/models"
	domrepo "FinSim/internal/domain/repository"
	domsvc "FinSim/internal/domain/service"
	"FinSim/internal/services/markov"
	pkgcache "FinSim/pkg/cache"
	applogger "FinSim/pkg/logger"
)

// RiskService implements RiskModeler on top of per-symbol markov engines.
// History comes from the price store; finished reports are cached as JSON
// so repeated dashboard polls skip the Monte Carlo run.
type RiskService struct {
	store     domrepo.PriceStore
	metrics   domrepo.Metrics
	cfg       markov.Config
	tf        domrepo.Timeframe
	reports   pkgcache.Service
	reportTTL time.Duration
	l         *applogger.Logger

	mu      sync.Mutex
	engines map[string]*markov.Engine
}

func NewRiskService(store domrepo.PriceStore, metrics domrepo.Metrics, cfg markov.Config, reports pkgcache.Service, reportTTL time.Duration) *RiskService {
	return &RiskService{
		store:     store,
		metrics:   metrics,
		cfg:       cfg,
		tf:        domrepo.DefaultTimeframe(),
		reports:   reports,
		reportTTL: reportTTL,
		engines:   make(map[string]*markov.Engine),
	}
}

// SetLogger injects a structured logger.
func (s *RiskService) SetLogger(l *applogger.Logger) { s.l = l }

func (s *RiskService) engineFor(symbol string) (*markov.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eng, ok := s.engines[symbol]; ok {
		return eng, nil
	}
	eng, err := markov.NewEngine(s.cfg)
	if err != nil {
		return nil, err
	}
	s.engines[symbol] = eng
	return eng, nil
}

// CalibratePayload fits from caller-supplied prices or returns.
func (s *RiskService) CalibratePayload(ctx context.Context, req *models.CalibrateRequest) (models.ModelInfo, error) {
	if (len(req.Prices) == 0) == (len(req.Returns) == 0) {
		return models.ModelInfo{}, fmt.Errorf("%w: exactly one of prices or returns must be set", markov.ErrInvalidInput)
	}

	eng, err := s.engineFor(req.Symbol)
	if err != nil {
		return models.ModelInfo{}, err
	}
	if len(req.Prices) > 0 {
		err = eng.FitFromPrices(req.Prices)
	} else {
		err = eng.FitFromReturns(req.Returns)
	}
	if err != nil {
		return models.ModelInfo{}, fmt.Errorf("calibrate %s: %w", req.Symbol, err)
	}
	if req.LastPrice > 0 {
		if err := eng.SetLastPrice(req.LastPrice); err != nil {
			return models.ModelInfo{}, fmt.Errorf("set last price: %w", err)
		}
	}
	s.metrics.RecordCalibration(req.Symbol)
	if s.l != nil {
		s.l.Info("calibrated from payload",
			applogger.String("symbol", req.Symbol),
			applogger.Int("prices", len(req.Prices)),
			applogger.Int("returns", len(req.Returns)),
		)
	}
	return s.infoFor(req.Symbol, eng)
}

// Fit calibrates a symbol from the latest n stored candles.
func (s *RiskService) Fit(ctx context.Context, symbol string, n int) (models.ModelInfo, error) {
	eng, err := s.engineFor(symbol)
	if err != nil {
		return models.ModelInfo{}, err
	}
	if err := s.fitFromStore(ctx, symbol, n, eng); err != nil {
		return models.ModelInfo{}, err
	}
	return s.infoFor(symbol, eng)
}

func (s *RiskService) fitFromStore(ctx context.Context, symbol string, n int, eng *markov.Engine) error {
	start := time.Now()
	candles, err := s.store.GetLatestNCandles(ctx, symbol, n, s.tf)
	if err != nil {
		s.metrics.RecordError("risk_history")
		return fmt.Errorf("load history %s: %w", symbol, err)
	}
	if err := eng.FitFromPrices(models.Closes(candles)); err != nil {
		s.metrics.RecordError("risk_calibrate")
		return fmt.Errorf("calibrate %s: %w", symbol, err)
	}
	s.metrics.RecordCalibration(symbol)
	s.metrics.RecordLatency("calibrate", time.Since(start).Seconds())
	if s.l != nil {
		s.l.Info("calibrated from store",
			applogger.String("symbol", symbol),
			applogger.Int("candles", len(candles)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Simulate generates price paths, lazily calibrating from stored history
// when the symbol has no model yet.
func (s *RiskService) Simulate(ctx context.Context, req *models.SimulateRequest) (models.SimulationResult, error) {
	eng, err := s.engineFor(req.Symbol)
	if err != nil {
		return models.SimulationResult{}, err
	}
	if _, ok := eng.Model(); !ok {
		if err := s.fitFromStore(ctx, req.Symbol, req.N, eng); err != nil {
			return models.SimulationResult{}, err
		}
	}

	start := time.Now()
	batch, err := eng.Simulate(req.Horizon, req.Scenarios, req.Start)
	if err != nil {
		s.metrics.RecordError("risk_simulate")
		return models.SimulationResult{}, fmt.Errorf("simulate %s: %w", req.Symbol, err)
	}
	s.metrics.RecordSimulation(req.Symbol, req.Scenarios)
	s.metrics.RecordLatency("simulate", time.Since(start).Seconds())

	res := models.SimulationResult{
		Symbol:         req.Symbol,
		Timestamp:      time.Now(),
		StartPrice:     batch.StartPrice,
		Horizon:        batch.Horizon,
		Scenarios:      len(batch.Paths),
		TerminalPrices: batch.TerminalPrices(),
		TerminalStates: stateNames(batch.TerminalStates),
	}
	if req.IncludePaths {
		res.Paths = batch.Paths
	}
	return res, nil
}

// Risk runs the full pipeline and caches the finished report.
func (s *RiskService) Risk(ctx context.Context, req *models.RiskRequest) (models.RiskReport, error) {
	key := fmt.Sprintf("risk:%s:%d:%d:%g:%d", req.Symbol, req.Horizon, req.Scenarios, req.Start, req.N)
	if s.reports != nil {
		if raw, err := s.reports.Get(ctx, key); err == nil {
			var cached models.RiskReport
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	eng, err := s.engineFor(req.Symbol)
	if err != nil {
		return models.RiskReport{}, err
	}
	if _, ok := eng.Model(); !ok {
		if err := s.fitFromStore(ctx, req.Symbol, req.N, eng); err != nil {
			return models.RiskReport{}, err
		}
	}

	start := time.Now()
	batch, err := eng.Simulate(req.Horizon, req.Scenarios, req.Start)
	if err != nil {
		s.metrics.RecordError("risk_simulate")
		return models.RiskReport{}, fmt.Errorf("simulate %s: %w", req.Symbol, err)
	}
	summary := markov.Summarize(batch, batch.StartPrice)
	s.metrics.RecordSimulation(req.Symbol, req.Scenarios)
	s.metrics.RecordLatency("risk_report", time.Since(start).Seconds())

	report := models.RiskReport{
		Symbol:        req.Symbol,
		Timestamp:     time.Now(),
		Horizon:       req.Horizon,
		Scenarios:     req.Scenarios,
		StartPrice:    summary.StartPrice,
		MedianPrice:   summary.MedianPrice,
		ProbNegReturn: summary.ProbNegReturn,
		VaR5Price:     summary.VaR5Price,
		P95Price:      summary.P95Price,
		MeanReturn:    summary.MeanReturn,
	}
	// std is undefined below two scenarios; JSON has no NaN, so expose null.
	if !math.IsNaN(summary.StdReturn) {
		std := summary.StdReturn
		report.StdReturn = &std
	}

	if s.reports != nil {
		if b, err := json.Marshal(report); err == nil {
			_ = s.reports.Set(ctx, key, string(b), s.reportTTL)
		}
	}
	return report, nil
}

// ModelInfo returns the current calibration for a symbol.
func (s *RiskService) ModelInfo(ctx context.Context, symbol string) (models.ModelInfo, error) {
	s.mu.Lock()
	eng, ok := s.engines[symbol]
	s.mu.Unlock()
	if !ok {
		return models.ModelInfo{}, fmt.Errorf("model %s: %w", symbol, markov.ErrNotCalibrated)
	}
	return s.infoFor(symbol, eng)
}

func (s *RiskService) infoFor(symbol string, eng *markov.Engine) (models.ModelInfo, error) {
	m, ok := eng.Model()
	if !ok {
		return models.ModelInfo{}, fmt.Errorf("model %s: %w", symbol, markov.ErrNotCalibrated)
	}
	matrix := m.TransitionMatrix()
	rows := make([][]float64, markov.NumStates)
	for i := range matrix {
		rows[i] = append([]float64(nil), matrix[i][:]...)
	}
	hist := m.StateHistogram()
	info := models.ModelInfo{
		Symbol:       symbol,
		States:       []string{markov.StateDown.String(), markov.StateFlat.String(), markov.StateUp.String()},
		Matrix:       rows,
		Histogram:    append([]int(nil), hist[:]...),
		LastState:    m.LastState().String(),
		SampleSize:   len(m.Returns()),
		CalibratedAt: time.Now(),
	}
	if price, ok := m.LastPrice(); ok {
		info.LastPrice = price
		info.HasLastPrice = true
	}
	return info, nil
}

func stateNames(states []markov.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.String()
	}
	return out
}

var _ domsvc.RiskModeler = (*RiskService)(nil)
