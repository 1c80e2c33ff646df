package service

import (
	"github.com/shopspring/decimal"

	"ilfen-assessment/internal/domain"
)

// NormalizeAnswer applies reverse scoring and forces the value into the five-level domain.
func (ScoringEngine) NormalizeAnswer(raw decimal.Decimal, reverseScored bool) decimal.Decimal {
	v := clampAnswer(raw)
	if reverseScored {
		v = domain.AnswerMax.Sub(v)
	}
	return v
}

// NormalizeAnswers builds the complete answer map for the given active questions.
// A question without a submitted value scores 0; submissions for unknown ids are dropped.
func (e ScoringEngine) NormalizeAnswers(questions []domain.Question, raw map[string]decimal.Decimal) domain.AnswerMap {
	answers := make(domain.AnswerMap, len(questions))
	for _, q := range questions {
		if !q.IsActive {
			continue
		}
		v, ok := raw[q.ID]
		if !ok {
			answers[q.ID] = decimal.Zero
			continue
		}
		answers[q.ID] = e.NormalizeAnswer(v, q.IsReverseScored)
	}
	return answers
}

func clampAnswer(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(domain.AnswerMin) {
		return domain.AnswerMin
	}
	if v.GreaterThan(domain.AnswerMax) {
		return domain.AnswerMax
	}
	// Snap to the nearest half step.
	return v.Mul(decimalTwo).RoundBank(0).Mul(decimalHalf)
}
