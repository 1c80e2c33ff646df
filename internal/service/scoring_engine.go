package service

import (
	"sort"

	"ilfen-assessment/internal/domain"
)

// ScoringEngine turns normalized answers into trait scores and a final weighted score.
// It holds no state and never touches storage.
type ScoringEngine struct{}

// DefaultScoringEngine permite uso directo sin instanciar.
var DefaultScoringEngine = ScoringEngine{}

// totalScorePlaces is the precision of the stored total score.
const totalScorePlaces int32 = 2

// ComputeResult scores a completed session against the trait configuration. The returned
// result carries a copy of every trait score, so later config changes do not alter it.
func (e ScoringEngine) ComputeResult(traits []domain.Trait, session domain.Session) domain.FinalResult {
	scores := e.AggregateTraits(traits, session.Answers)
	total := e.ScoreTraits(scores)

	return domain.FinalResult{
		SessionID:        session.ID,
		TotalScore:       total.RoundBank(totalScorePlaces),
		TraitScores:      scores,
		TimeTakenMinutes: session.TimeTakenMinutes(),
	}
}

// ActiveQuestions flattens the questions that take part in scoring, in display order.
func (ScoringEngine) ActiveQuestions(traits []domain.Trait) []domain.Question {
	var questions []domain.Question
	for _, t := range traits {
		if !t.IsActive {
			continue
		}
		questions = append(questions, t.ActiveQuestions()...)
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
	return questions
}
