package usecase

import (
	"context"
	"fmt"

	"FinSim/internal/domain/models"
	domsvc "FinSim/internal/domain/service"
	applogger "FinSim/pkg/logger"
	"FinSim/pkg/queue"
)

// ReportJobPayload asks for a risk report to be precomputed so the cache is
// warm before dashboards poll for it.
type ReportJobPayload struct {
	Symbol    string  `json:"symbol"`
	Horizon   int     `json:"horizon"`
	Scenarios int     `json:"scenarios"`
	Start     float64 `json:"start"`
	N         int     `json:"n"`
}

// ReportJob consumes precompute requests from the Redis queue.
type ReportJob struct {
	risk domsvc.RiskModeler
	l    *applogger.Logger
}

func NewReportJob(risk domsvc.RiskModeler, l *applogger.Logger) *ReportJob {
	return &ReportJob{risk: risk, l: l}
}

func (j *ReportJob) Name() string { return "risk_report_precompute" }
func (j *ReportJob) Type() string { return "risk_report" }

func (j *ReportJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ReportJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse report payload: %w", err)
	}
	if p.Symbol == "" {
		return fmt.Errorf("report payload: symbol required")
	}
	if p.Horizon <= 0 {
		p.Horizon = 20
	}
	if p.Scenarios < 2 {
		p.Scenarios = 10000
	}
	if p.N <= 0 {
		p.N = 250
	}

	req := &models.RiskRequest{
		Symbol:    p.Symbol,
		Horizon:   p.Horizon,
		Scenarios: p.Scenarios,
		Start:     p.Start,
		N:         p.N,
	}
	report, err := j.risk.Risk(ctx, req)
	if err != nil {
		if j.l != nil {
			j.l.Error("report precompute failed",
				applogger.String("symbol", p.Symbol),
				applogger.Error(err),
			)
		}
		return err
	}
	if j.l != nil {
		j.l.Info("report precomputed",
			applogger.String("symbol", p.Symbol),
			applogger.Int("horizon", report.Horizon),
			applogger.Int("scenarios", report.Scenarios),
		)
	}
	return nil
}

var _ queue.Job = (*ReportJob)(nil)
