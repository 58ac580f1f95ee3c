package api

import (
	"errors"
	"time"

	models "FinSim/internal/domain/models"
	domrepo "FinSim/internal/domain/repository"
	domsvc "FinSim/internal/domain/service"
	"FinSim/internal/service/metrics"
	"FinSim/internal/service/ratelimit"
	"FinSim/internal/services/markov"
	"FinSim/internal/usecase"
	xhttp "FinSim/pkg/http"
	xlogger "FinSim/pkg/logger"
	pkgqueue "FinSim/pkg/queue"

	"github.com/labstack/echo/v4"
)

// RiskEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type RiskEchoHandler struct {
	logger *xlogger.Logger
	risk   domsvc.RiskModeler
	prices *usecase.PricesUseCase
	rl     *ratelimit.Limiter
	queue  *pkgqueue.RedisQueue // nil when redis is not configured
}

func NewRiskEchoHandler(logger *xlogger.Logger, risk domsvc.RiskModeler, prices *usecase.PricesUseCase, queue *pkgqueue.RedisQueue) *RiskEchoHandler {
	metrics.Register()
	return &RiskEchoHandler{logger: logger, risk: risk, prices: prices, rl: ratelimit.New(), queue: queue}
}

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/calibrate", h.Calibrate)
	g.POST("/fit", h.Fit)
	g.POST("/reports", h.SubmitReport)
	g.GET("/simulate", h.Simulate)
	g.GET("/risk", h.Risk)
	g.GET("/model", h.Model)
	g.GET("/prices", h.Prices)
}

// Calibrate fits a model from prices or returns supplied in the body.
func (h *RiskEchoHandler) Calibrate(c echo.Context) error {
	start := time.Now()
	endpoint := "calibrate"
	defer func() { metrics.RiskLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.CalibrateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	info, err := h.risk.CalibratePayload(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, info)
}

// Fit calibrates from stored price history.
func (h *RiskEchoHandler) Fit(c echo.Context) error {
	start := time.Now()
	endpoint := "fit"
	defer func() { metrics.RiskLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.FitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	info, err := h.risk.Fit(c.Request().Context(), req.Symbol, req.N)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	h.precomputeReport(c, req.Symbol, req.N)
	return xhttp.SuccessResponse(c, info)
}

// SubmitReport queues an async report precompute. The finished report lands
// in the cache and is served by GET /api/risk with the same parameters.
func (h *RiskEchoHandler) SubmitReport(c echo.Context) error {
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.queue == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("queue_disabled", "", "async reports require redis", 503))
	}

	payload := usecase.ReportJobPayload{
		Symbol:    req.Symbol,
		Horizon:   req.Horizon,
		Scenarios: req.Scenarios,
		Start:     req.Start,
		N:         req.N,
	}
	if err := h.queue.Enqueue(c.Request().Context(), "risk_report", payload); err != nil {
		metrics.RiskErrors.WithLabelValues("reports").Inc()
		h.logger.Error("report enqueue failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, 202, payload)
}

// precomputeReport enqueues a background report job so the cache is warm
// after a fresh calibration. Best effort.
func (h *RiskEchoHandler) precomputeReport(c echo.Context, symbol string, n int) {
	if h.queue == nil {
		return
	}
	payload := usecase.ReportJobPayload{Symbol: symbol, N: n}
	if err := h.queue.Enqueue(c.Request().Context(), "risk_report", payload); err != nil {
		h.logger.Warn("report precompute enqueue failed",
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
	}
}

// Simulate generates Monte Carlo price paths.
func (h *RiskEchoHandler) Simulate(c echo.Context) error {
	start := time.Now()
	endpoint := "simulate"
	defer func() { metrics.RiskLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":simulate", 5, 2) {
		h.logger.Warn("simulate rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "rate limited", 429))
	}

	res, err := h.risk.Simulate(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Risk runs the full calibrate-simulate-summarize pipeline.
func (h *RiskEchoHandler) Risk(c echo.Context) error {
	start := time.Now()
	endpoint := "risk"
	defer func() { metrics.RiskLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":risk", 3, 1) {
		h.logger.Warn("risk rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "rate limited", 429))
	}

	report, err := h.risk.Risk(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, report)
}

// Model returns the current calibration for a symbol.
func (h *RiskEchoHandler) Model(c echo.Context) error {
	req := &models.ModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	info, err := h.risk.ModelInfo(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "model", err)
	}
	return xhttp.SuccessResponse(c, info)
}

// Prices returns stored candles: either the latest n, or a from/to range.
func (h *RiskEchoHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	var res *usecase.GetPricesResult
	var err error
	if req.From != "" || req.To != "" {
		to := xhttp.ParseTimeDefault(req.To, time.Now())
		from := xhttp.ParseTimeDefault(req.From, to.AddDate(0, 0, -30))
		res, err = h.prices.Range(c.Request().Context(), req.Symbol, from, to, tf)
	} else {
		res, err = h.prices.Latest(c.Request().Context(), req.Symbol, req.N, tf)
	}
	if err != nil {
		h.logger.Error("prices usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// fail maps model errors onto HTTP statuses.
func (h *RiskEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	metrics.RiskErrors.WithLabelValues(endpoint).Inc()
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	switch {
	case errors.Is(err, markov.ErrNotCalibrated):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	case errors.Is(err, markov.ErrInvalidInput),
		errors.Is(err, markov.ErrInsufficientData),
		errors.Is(err, markov.ErrConfig):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}
