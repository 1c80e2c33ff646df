package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var ErrMalformedAnswers = errors.New("malformed answers")

var (
	AnswerMin  = decimal.Zero
	AnswerMax  = decimal.NewFromInt(2)
	AnswerStep = decimal.NewFromFloat(0.5)
)

// AnswerMap guarda la respuesta normalizada de cada pregunta (id -> 0, 0.5, 1, 1.5 o 2).
type AnswerMap map[string]decimal.Decimal

// IsValidAnswer indica si el valor pertenece al dominio de cinco niveles.
func IsValidAnswer(v decimal.Decimal) bool {
	if v.LessThan(AnswerMin) || v.GreaterThan(AnswerMax) {
		return false
	}
	return v.Mul(decimal.NewFromInt(2)).IsInteger()
}

// Get devuelve la respuesta de la pregunta o 0 si no existe.
func (m AnswerMap) Get(questionID string) decimal.Decimal {
	if v, ok := m[questionID]; ok {
		return v
	}
	return decimal.Zero
}

// Keys devuelve los ids ordenados, util para serializar de forma estable.
func (m AnswerMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m AnswerMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]jsonDecimal, len(m))
	for k, v := range m {
		out[k] = jsonDecimal{v}
	}
	return json.Marshal(out)
}

func (m *AnswerMap) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeAnswerMap(data)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// DecodeAnswerMap valida el JSON persistido de respuestas. Un blob vacio es un mapa vacio.
func DecodeAnswerMap(data []byte) (AnswerMap, error) {
	if len(data) == 0 {
		return AnswerMap{}, nil
	}
	var raw map[string]jsonDecimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswers, err)
	}
	answers := make(AnswerMap, len(raw))
	for id, v := range raw {
		if id == "" {
			return nil, fmt.Errorf("%w: empty question id", ErrMalformedAnswers)
		}
		if !IsValidAnswer(v.Decimal) {
			return nil, fmt.Errorf("%w: question %s has out-of-range value %s", ErrMalformedAnswers, id, v.Decimal)
		}
		answers[id] = v.Decimal
	}
	return answers, nil
}
