package pricefeed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"FinSim/internal/domain/models"
	xhttp "FinSim/pkg/http"
)

// HistoryClient fetches historical candles over the feed's REST API.
type HistoryClient struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

func NewHistoryClient(baseURL, apiKey string, timeout time.Duration) *HistoryClient {
	return &HistoryClient{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// candleResponse mirrors the REST candle payload: parallel arrays plus a status.
type candleResponse struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}

// DailyCloses returns one tick per day close in [from, to].
func (h *HistoryClient) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]*models.Tick, error) {
	var resp candleResponse
	err := h.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    h.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {h.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	if resp.S != "ok" {
		return nil, fmt.Errorf("fetch candles %s: status %q", symbol, resp.S)
	}
	if len(resp.T) != len(resp.C) {
		return nil, fmt.Errorf("fetch candles %s: mismatched arrays", symbol)
	}

	ticks := make([]*models.Tick, 0, len(resp.T))
	for i := range resp.T {
		var vol float64
		if i < len(resp.V) {
			vol = resp.V[i]
		}
		ticks = append(ticks, &models.Tick{
			Symbol:    symbol,
			Timestamp: resp.T[i],
			Price:     resp.C[i],
			Volume:    vol,
		})
	}
	return ticks, nil
}
