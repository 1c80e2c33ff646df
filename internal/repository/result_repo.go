package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ilfen-assessment/internal/domain"
)

type ResultRepository interface {
	Upsert(ctx context.Context, result domain.FinalResult) (domain.FinalResult, error)
	GetBySessionID(ctx context.Context, sessionID string) (domain.FinalResult, error)
	UpdateCertificatePath(ctx context.Context, id, path string) error
}

type PgResultRepository struct {
	pool *pgxpool.Pool
}

func NewPgResultRepository(pool *pgxpool.Pool) *PgResultRepository {
	return &PgResultRepository{pool: pool}
}

// Upsert guarda el resultado de la sesion. Recalcular pisa puntajes pero conserva id,
// fecha de creacion y certificado previo.
func (r *PgResultRepository) Upsert(ctx context.Context, result domain.FinalResult) (domain.FinalResult, error) {
	traitScores, err := domain.EncodeTraitScores(result.TraitScores)
	if err != nil {
		return domain.FinalResult{}, err
	}
	const query = `
		INSERT INTO test_results (id, session_id, total_score, trait_scores_json, certificate_path, time_taken_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id)
		DO UPDATE SET
			total_score = EXCLUDED.total_score,
			trait_scores_json = EXCLUDED.trait_scores_json,
			time_taken_minutes = EXCLUDED.time_taken_minutes
		RETURNING id, certificate_path, created_at
	`
	err = r.pool.QueryRow(ctx, query,
		result.ID,
		result.SessionID,
		result.TotalScore,
		string(traitScores),
		result.CertificatePath,
		result.TimeTakenMinutes,
		result.CreatedAt,
	).Scan(&result.ID, &result.CertificatePath, &result.CreatedAt)
	if err != nil {
		return domain.FinalResult{}, err
	}
	return result, nil
}

func (r *PgResultRepository) GetBySessionID(ctx context.Context, sessionID string) (domain.FinalResult, error) {
	const query = `
		SELECT id, session_id, total_score, trait_scores_json, certificate_path, time_taken_minutes, created_at
		FROM test_results
		WHERE session_id = $1
	`
	var (
		result      domain.FinalResult
		traitScores string
	)
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&result.ID,
		&result.SessionID,
		&result.TotalScore,
		&traitScores,
		&result.CertificatePath,
		&result.TimeTakenMinutes,
		&result.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FinalResult{}, err
	}
	if err != nil {
		return domain.FinalResult{}, err
	}

	scores, err := domain.DecodeTraitScores([]byte(traitScores))
	if err != nil {
		return domain.FinalResult{}, fmt.Errorf("result %s: %w", result.ID, err)
	}
	result.TraitScores = scores
	return result, nil
}

func (r *PgResultRepository) UpdateCertificatePath(ctx context.Context, id, path string) error {
	const query = `UPDATE test_results SET certificate_path = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, path)
	return err
}
