package domain

import "github.com/shopspring/decimal"

// Trait es un rasgo emprendedora medida por el test, con su peso relativo.
type Trait struct {
	ID        string          `json:"id"`
	Variant   Variant         `json:"variant"`
	Name      string          `json:"name"`
	NameEn    string          `json:"name_en,omitempty"`
	Weight    decimal.Decimal `json:"weight"`
	IsActive  bool            `json:"is_active"`
	Order     int             `json:"order"`
	Questions []Question      `json:"questions,omitempty"`
}

type Question struct {
	ID              string `json:"id"`
	TraitID         string `json:"trait_id"`
	Text            string `json:"text"`
	IsActive        bool   `json:"is_active"`
	IsReverseScored bool   `json:"is_reverse_scored"`
	Order           int    `json:"order"`
}

// ActiveQuestions devuelve las preguntas activas respetando el orden original.
func (t Trait) ActiveQuestions() []Question {
	active := make([]Question, 0, len(t.Questions))
	for _, q := range t.Questions {
		if q.IsActive {
			active = append(active, q)
		}
	}
	return active
}
