package aggregate

import (
	"fmt"
	"math"
)

// RegressionSummary holds an ordinary least-squares fit over paired aggregate
// series. Defined is false when fewer than two usable pairs exist or the
// predictor has zero variance; Slope and Intercept are meaningless in that
// case and must not be displayed.
type RegressionSummary struct {
	Slope     float64
	Intercept float64
	N         int
	Defined   bool
}

// OLS computes the closed-form least-squares fit of response on predictor.
// Pairs with a NaN member are skipped. The two slices must have equal length.
func OLS(predictor, response []float64) (RegressionSummary, error) {
	if len(predictor) != len(response) {
		return RegressionSummary{}, fmt.Errorf("ols: length mismatch: %d predictors, %d responses", len(predictor), len(response))
	}

	var n int
	var sumX, sumY float64
	for i := range predictor {
		if math.IsNaN(predictor[i]) || math.IsNaN(response[i]) {
			continue
		}
		n++
		sumX += predictor[i]
		sumY += response[i]
	}
	if n < 2 {
		return RegressionSummary{N: n}, nil
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy float64
	for i := range predictor {
		if math.IsNaN(predictor[i]) || math.IsNaN(response[i]) {
			continue
		}
		dx := predictor[i] - meanX
		sxx += dx * dx
		sxy += dx * (response[i] - meanY)
	}
	if sxx == 0 {
		// All predictor values identical: slope is undefined.
		return RegressionSummary{N: n}, nil
	}

	slope := sxy / sxx
	return RegressionSummary{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		N:         n,
		Defined:   true,
	}, nil
}

// RatioVsIndicator fits the mortality ratio (response) against the per-capita
// GDP indicator (predictor) across regions. Aggregates with an undefined
// ratio or a missing indicator are skipped.
func RatioVsIndicator(aggs []RegionAggregate) (RegressionSummary, error) {
	var pred, resp []float64
	for _, a := range aggs {
		if !a.RatioDefined || a.GDPPerCapita == nil {
			continue
		}
		pred = append(pred, *a.GDPPerCapita)
		resp = append(resp, a.Ratio)
	}
	return OLS(pred, resp)
}
