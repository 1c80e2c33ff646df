package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"ilfen-assessment/internal/domain"
)

// TraitRepository expone la configuracion del test (rasgos y preguntas) en modo lectura.
type TraitRepository interface {
	ListActive(ctx context.Context, variant domain.Variant) ([]domain.Trait, error)
}

type PgTraitRepository struct {
	pool *pgxpool.Pool
}

func NewPgTraitRepository(pool *pgxpool.Pool) *PgTraitRepository {
	return &PgTraitRepository{pool: pool}
}

// ListActive devuelve los rasgos activos de la variante, en orden de despliegue, con todas
// sus preguntas (activas o no). El motor de puntaje decide que preguntas cuentan.
func (r *PgTraitRepository) ListActive(ctx context.Context, variant domain.Variant) ([]domain.Trait, error) {
	const traitsQuery = `
		SELECT id, variant, name, name_en, weight, is_active, sort_order
		FROM traits
		WHERE variant = $1 AND is_active
		ORDER BY sort_order, name
	`

	rows, err := r.pool.Query(ctx, traitsQuery, variant.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traits []domain.Trait
	index := make(map[string]int)
	for rows.Next() {
		var t domain.Trait
		var v string
		if err := rows.Scan(&t.ID, &v, &t.Name, &t.NameEn, &t.Weight, &t.IsActive, &t.Order); err != nil {
			return nil, err
		}
		t.Variant = domain.Variant(v)
		index[t.ID] = len(traits)
		traits = append(traits, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(traits) == 0 {
		return traits, nil
	}

	const questionsQuery = `
		SELECT q.id, q.trait_id, q.text, q.is_active, q.is_reverse_scored, q.sort_order
		FROM questions q
		JOIN traits t ON t.id = q.trait_id
		WHERE t.variant = $1 AND t.is_active
		ORDER BY q.sort_order, q.id
	`

	qrows, err := r.pool.Query(ctx, questionsQuery, variant.String())
	if err != nil {
		return nil, err
	}
	defer qrows.Close()

	for qrows.Next() {
		var q domain.Question
		if err := qrows.Scan(&q.ID, &q.TraitID, &q.Text, &q.IsActive, &q.IsReverseScored, &q.Order); err != nil {
			return nil, err
		}
		if i, ok := index[q.TraitID]; ok {
			traits[i].Questions = append(traits[i].Questions, q)
		}
	}
	if err := qrows.Err(); err != nil {
		return nil, err
	}

	return traits, nil
}
