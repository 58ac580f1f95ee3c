package markov

import "sort"

// Report is the fixed set of risk metrics derived from one simulation batch.
// StdReturn is NaN when the batch has fewer than two scenarios.
type Report struct {
	StartPrice    float64 `json:"start_price"`
	MedianPrice   float64 `json:"median_price"`
	ProbNegReturn float64 `json:"prob_neg_return"`
	VaR5Price     float64 `json:"var5_price"`
	P95Price      float64 `json:"p95_price"`
	MeanReturn    float64 `json:"mean_return"`
	StdReturn     float64 `json:"std_return"`
}

// Summarize reduces a batch of simulated paths to risk metrics relative to
// the given start price. VaR5Price and P95Price are price levels (empirical
// 5th/95th percentiles of terminal prices), not loss amounts.
func Summarize(batch *Batch, startPrice float64) Report {
	terminal := batch.TerminalPrices()

	returns := make([]float64, len(terminal))
	negatives := 0
	for i, p := range terminal {
		returns[i] = p/startPrice - 1
		// Ties at exactly zero do not count as loss.
		if returns[i] < 0 {
			negatives++
		}
	}

	sortedPrices := append([]float64(nil), terminal...)
	sort.Float64s(sortedPrices)
	sortedReturns := append([]float64(nil), returns...)
	sort.Float64s(sortedReturns)

	probNeg := 0.0
	if len(terminal) > 0 {
		probNeg = float64(negatives) / float64(len(terminal))
	}

	return Report{
		StartPrice:    startPrice,
		MedianPrice:   Quantile(sortedPrices, 0.50),
		ProbNegReturn: probNeg,
		VaR5Price:     Quantile(sortedPrices, 0.05),
		P95Price:      Quantile(sortedPrices, 0.95),
		MeanReturn:    Mean(sortedReturns),
		StdReturn:     StdDev(sortedReturns),
	}
}
