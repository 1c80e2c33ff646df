package domain

import (
	"errors"
	"strings"
)

// Variant identifica la version del test (adultos o ninos).
type Variant string

const (
	VariantAdult  Variant = "adult"
	VariantJunior Variant = "junior"
)

var ErrUnknownVariant = errors.New("unknown test variant")

// ParseVariant acepta la clave tal como llega en la URL.
func ParseVariant(raw string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(raw))) {
	case VariantAdult:
		return VariantAdult, nil
	case VariantJunior:
		return VariantJunior, nil
	}
	return "", ErrUnknownVariant
}

func (v Variant) String() string {
	return string(v)
}
