package models

// Requests for risk HTTP endpoints. Defined in domain for consistency and reuse.

// CalibrateRequest fits a chain model from an explicit payload. Exactly one
// of Prices or Returns must be non-empty; the handler enforces that.
type CalibrateRequest struct {
	Symbol    string    `json:"symbol" validate:"required"`
	Prices    []float64 `json:"prices" validate:"omitempty,min=3"`
	Returns   []float64 `json:"returns" validate:"omitempty,min=2"`
	LastPrice float64   `json:"last_price" validate:"omitempty,gt=0"`
}

// FitRequest calibrates a symbol from stored price history.
type FitRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"250" validate:"gte=3,lte=5000"`
}

type SimulateRequest struct {
	Symbol       string  `query:"symbol" json:"symbol" validate:"required"`
	Horizon      int     `query:"horizon" json:"horizon" default:"20" validate:"gte=1,lte=2520"`
	Scenarios    int     `query:"scenarios" json:"scenarios" default:"1000" validate:"gte=1,lte=100000"`
	Start        float64 `query:"start" json:"start" validate:"omitempty,gt=0"`
	N            int     `query:"n" json:"n" default:"250" validate:"gte=3,lte=5000"`
	IncludePaths bool    `query:"include_paths" json:"include_paths"`
}

type RiskRequest struct {
	Symbol    string  `query:"symbol" json:"symbol" validate:"required"`
	Horizon   int     `query:"horizon" json:"horizon" default:"20" validate:"gte=1,lte=2520"`
	Scenarios int     `query:"scenarios" json:"scenarios" default:"10000" validate:"gte=2,lte=100000"`
	Start     float64 `query:"start" json:"start" validate:"omitempty,gt=0"`
	N         int     `query:"n" json:"n" default:"250" validate:"gte=3,lte=5000"`
}

// ReportRequest submits an async report precompute job; results land in the
// report cache and are served by GET /api/risk.
type ReportRequest struct {
	Symbol    string  `json:"symbol" validate:"required"`
	Horizon   int     `json:"horizon" default:"20" validate:"gte=1,lte=2520"`
	Scenarios int     `json:"scenarios" default:"10000" validate:"gte=2,lte=100000"`
	Start     float64 `json:"start" validate:"omitempty,gt=0"`
	N         int     `json:"n" default:"250" validate:"gte=3,lte=5000"`
}

type ModelRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type PricesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"250" validate:"gte=1,lte=10000"`
	TF     string `query:"tf" json:"tf" validate:"omitempty,oneof=1m 1h 1d"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}
