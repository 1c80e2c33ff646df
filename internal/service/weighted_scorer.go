package service

import (
	"github.com/shopspring/decimal"

	"ilfen-assessment/internal/domain"
)

// ScoreTraits fills each trait's weighted score and returns the weighted average of the
// ratios scaled to 0-100. With no weight to divide by the score is 0.
func (ScoringEngine) ScoreTraits(results []domain.TraitResult) decimal.Decimal {
	totalWeighted := decimal.Zero
	totalWeight := decimal.Zero
	for i := range results {
		results[i].WeightedScore = results[i].Ratio.Mul(results[i].Weight)
		totalWeighted = totalWeighted.Add(results[i].WeightedScore)
		totalWeight = totalWeight.Add(results[i].Weight)
	}
	if !totalWeight.IsPositive() {
		return decimal.Zero
	}
	return divHalfEven(totalWeighted, totalWeight).Mul(decimalHundred)
}
