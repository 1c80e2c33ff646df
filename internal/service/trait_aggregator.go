package service

import (
	"github.com/shopspring/decimal"

	"ilfen-assessment/internal/domain"
)

// AggregateTraits sums the answers of each active trait. Traits that are inactive or have
// no active questions are left out completely. WeightedScore is filled by ScoreTraits.
func (ScoringEngine) AggregateTraits(traits []domain.Trait, answers domain.AnswerMap) []domain.TraitResult {
	results := make([]domain.TraitResult, 0, len(traits))
	for _, trait := range traits {
		if !trait.IsActive {
			continue
		}
		questions := trait.ActiveQuestions()
		if len(questions) == 0 {
			continue
		}

		userScore := decimal.Zero
		for _, q := range questions {
			userScore = userScore.Add(answers.Get(q.ID))
		}
		maxScore := decimal.NewFromInt(int64(len(questions))).Mul(domain.AnswerMax)

		results = append(results, domain.TraitResult{
			TraitName: trait.Name,
			NameEn:    trait.NameEn,
			UserScore: userScore,
			MaxScore:  maxScore,
			Ratio:     divHalfEven(userScore, maxScore),
			Weight:    trait.Weight,
			Order:     len(results),
		})
	}
	return results
}
