package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ilfen-assessment/internal/domain"
)

type RegistrationRepository interface {
	Upsert(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	GetByID(ctx context.Context, id string) (domain.Registration, error)
	MarkTaken(ctx context.Context, id string) error
}

type PgRegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewPgRegistrationRepository(pool *pgxpool.Pool) *PgRegistrationRepository {
	return &PgRegistrationRepository{pool: pool}
}

// Upsert crea la inscripcion o, si el email ya existe en la variante, actualiza el nombre
// y devuelve la fila existente (con su has_taken_test).
func (r *PgRegistrationRepository) Upsert(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	const query = `
		INSERT INTO registrations (id, variant, name, email, has_taken_test, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		ON CONFLICT (variant, email)
		DO UPDATE SET name = EXCLUDED.name
		RETURNING id, variant, name, email, has_taken_test, created_at
	`
	var out domain.Registration
	var v string
	err := r.pool.QueryRow(ctx, query,
		reg.ID,
		reg.Variant.String(),
		reg.Name,
		reg.Email,
		reg.CreatedAt,
	).Scan(&out.ID, &v, &out.Name, &out.Email, &out.HasTakenTest, &out.CreatedAt)
	if err != nil {
		return domain.Registration{}, err
	}
	out.Variant = domain.Variant(v)
	return out, nil
}

func (r *PgRegistrationRepository) GetByID(ctx context.Context, id string) (domain.Registration, error) {
	const query = `
		SELECT id, variant, name, email, has_taken_test, created_at
		FROM registrations
		WHERE id = $1
	`
	var reg domain.Registration
	var v string
	err := r.pool.QueryRow(ctx, query, id).Scan(&reg.ID, &v, &reg.Name, &reg.Email, &reg.HasTakenTest, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Registration{}, err
	}
	reg.Variant = domain.Variant(v)
	return reg, err
}

func (r *PgRegistrationRepository) MarkTaken(ctx context.Context, id string) error {
	const query = `UPDATE registrations SET has_taken_test = true WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
