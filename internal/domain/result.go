package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrMalformedTraitScores = errors.New("malformed trait scores")

// TraitResult es la foto del puntaje de un rasgo al momento de calcular el resultado.
// Ratio se mantiene como fraccion (0-1); el porcentaje solo existe para mostrar.
type TraitResult struct {
	TraitName     string          `json:"trait_name"`
	NameEn        string          `json:"name_en,omitempty"`
	UserScore     decimal.Decimal `json:"user_score"`
	MaxScore      decimal.Decimal `json:"max_score"`
	Ratio         decimal.Decimal `json:"ratio"`
	Weight        decimal.Decimal `json:"weight"`
	WeightedScore decimal.Decimal `json:"weighted_score"`
	Order         int             `json:"order"`
}

// Percentage devuelve Ratio x 100 sin redondear.
func (t TraitResult) Percentage() decimal.Decimal {
	return t.Ratio.Shift(2)
}

type FinalResult struct {
	ID               string          `json:"id"`
	SessionID        string          `json:"session_id"`
	TotalScore       decimal.Decimal `json:"total_score"`
	TraitScores      []TraitResult   `json:"trait_scores"`
	TimeTakenMinutes int             `json:"time_taken_minutes"`
	CertificatePath  string          `json:"certificate_path,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// RoundedScore es el entero que se imprime en el certificado (redondeo bancario).
func (r FinalResult) RoundedScore() int64 {
	return r.TotalScore.RoundBank(0).IntPart()
}

type traitScoreEntry struct {
	NameEn        string       `json:"name_en,omitempty"`
	Percentage    *jsonDecimal `json:"percentage"`
	UserScore     *jsonDecimal `json:"user_score"`
	MaxScore      *jsonDecimal `json:"max_score"`
	Weight        *jsonDecimal `json:"weight"`
	WeightedScore *jsonDecimal `json:"weighted_score"`
	Order         int          `json:"order"`
}

// EncodeTraitScores arma el JSON nombre -> puntajes que se guarda junto al resultado.
func EncodeTraitScores(scores []TraitResult) ([]byte, error) {
	out := make(map[string]traitScoreEntry, len(scores))
	for _, s := range scores {
		if _, dup := out[s.TraitName]; dup {
			return nil, fmt.Errorf("%w: duplicated trait %q", ErrMalformedTraitScores, s.TraitName)
		}
		out[s.TraitName] = traitScoreEntry{
			NameEn:        s.NameEn,
			Percentage:    &jsonDecimal{s.Percentage()},
			UserScore:     &jsonDecimal{s.UserScore},
			MaxScore:      &jsonDecimal{s.MaxScore},
			Weight:        &jsonDecimal{s.Weight},
			WeightedScore: &jsonDecimal{s.WeightedScore},
			Order:         s.Order,
		}
	}
	return json.Marshal(out)
}

// DecodeTraitScores valida el JSON persistido y recupera el orden de despliegue.
func DecodeTraitScores(data []byte) ([]TraitResult, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw map[string]traitScoreEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTraitScores, err)
	}

	scores := make([]TraitResult, 0, len(raw))
	for name, entry := range raw {
		if name == "" {
			return nil, fmt.Errorf("%w: empty trait name", ErrMalformedTraitScores)
		}
		if entry.Percentage == nil || entry.UserScore == nil || entry.MaxScore == nil ||
			entry.Weight == nil || entry.WeightedScore == nil {
			return nil, fmt.Errorf("%w: trait %q is missing fields", ErrMalformedTraitScores, name)
		}
		scores = append(scores, TraitResult{
			TraitName:     name,
			NameEn:        entry.NameEn,
			UserScore:     entry.UserScore.Decimal,
			MaxScore:      entry.MaxScore.Decimal,
			Ratio:         entry.Percentage.Decimal.Shift(-2),
			Weight:        entry.Weight.Decimal,
			WeightedScore: entry.WeightedScore.Decimal,
			Order:         entry.Order,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Order != scores[j].Order {
			return scores[i].Order < scores[j].Order
		}
		return scores[i].TraitName < scores[j].TraitName
	})
	return scores, nil
}
