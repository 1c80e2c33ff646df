package service

import (
	"sort"

	"ilfen-assessment/internal/domain"
)

var (
	LevelExcellent = domain.Level{
		Key:         "excellent",
		Label:       "ممتاز",
		LabelEn:     "Excellent",
		Description: "لديك سمات رائد أعمال قوية جداً",
		Color:       "#0ecd73",
	}
	LevelVeryGood = domain.Level{
		Key:         "very_good",
		Label:       "جيد جداً",
		LabelEn:     "Very good",
		Description: "لديك سمات ريادية جيدة مع مجال للتطوير",
		Color:       "#2A5F73",
	}
	LevelGood = domain.Level{
		Key:         "good",
		Label:       "جيد",
		LabelEn:     "Good",
		Description: "لديك أساس جيد ولكن تحتاج إلى تطوير بعض المهارات",
		Color:       "#f4a340",
	}
	LevelNeedsDevelopment = domain.Level{
		Key:         "needs_development",
		Label:       "يحتاج إلى تطوير",
		LabelEn:     "Needs development",
		Description: "ننصح بالعمل على تطوير السمات الريادية",
		Color:       "#e74c3c",
	}
)

// recommendationSize is how many traits are reported as strengths and as weaknesses.
const recommendationSize = 3

// ClassifyLevel maps a final score to its band.
func (ScoringEngine) ClassifyLevel(score float64) domain.Level {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 60:
		return LevelVeryGood
	case score >= 40:
		return LevelGood
	default:
		return LevelNeedsDevelopment
	}
}

// TraitHighlight is a trait listed as a strength or a weakness.
type TraitHighlight struct {
	Name       string  `json:"name"`
	NameEn     string  `json:"name_en,omitempty"`
	Percentage float64 `json:"percentage"`
}

type Recommendations struct {
	StrongTraits []TraitHighlight `json:"strong_traits"`
	WeakTraits   []TraitHighlight `json:"weak_traits"`
	OverallLevel domain.Level     `json:"overall_level"`
}

// Recommend picks the top and bottom traits by percentage. Ties keep display order.
// With fewer than six traits the two lists overlap, as they always have.
func (e ScoringEngine) Recommend(scores []domain.TraitResult, totalScore float64) Recommendations {
	sorted := make([]domain.TraitResult, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ratio.GreaterThan(sorted[j].Ratio)
	})

	strong := sorted[:min(recommendationSize, len(sorted))]
	weak := sorted[max(0, len(sorted)-recommendationSize):]

	return Recommendations{
		StrongTraits: toHighlights(strong),
		WeakTraits:   toHighlights(weak),
		OverallLevel: e.ClassifyLevel(totalScore),
	}
}

func toHighlights(scores []domain.TraitResult) []TraitHighlight {
	out := make([]TraitHighlight, 0, len(scores))
	for _, s := range scores {
		out = append(out, TraitHighlight{
			Name:       s.TraitName,
			NameEn:     s.NameEn,
			Percentage: s.Percentage().InexactFloat64(),
		})
	}
	return out
}
