package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ilfen-assessment/internal/domain"
)

type SessionRepository interface {
	GetOrCreate(ctx context.Context, session domain.Session) (domain.Session, error)
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Complete(ctx context.Context, id string, answers domain.AnswerMap, completedAt time.Time) error
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

// GetOrCreate devuelve la sesion de la inscripcion, creandola si todavia no existe.
func (r *PgSessionRepository) GetOrCreate(ctx context.Context, session domain.Session) (domain.Session, error) {
	const query = `
		INSERT INTO test_sessions (id, registration_id, variant, started_at, is_completed)
		VALUES ($1, $2, $3, $4, false)
		ON CONFLICT (registration_id)
		DO UPDATE SET registration_id = EXCLUDED.registration_id
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query,
		session.ID,
		session.RegistrationID,
		session.Variant.String(),
		session.StartedAt,
	).Scan(&id)
	if err != nil {
		return domain.Session{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID carga la sesion y valida el JSON de respuestas; un JSON corrupto es un error.
func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, registration_id, variant, started_at, completed_at, is_completed, COALESCE(answers_json, '')
		FROM test_sessions
		WHERE id = $1
	`
	var (
		session     domain.Session
		variant     string
		answersJSON string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.RegistrationID,
		&variant,
		&session.StartedAt,
		&session.CompletedAt,
		&session.IsCompleted,
		&answersJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, err
	}
	if err != nil {
		return domain.Session{}, err
	}
	session.Variant = domain.Variant(variant)

	answers, err := domain.DecodeAnswerMap([]byte(answersJSON))
	if err != nil {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, err)
	}
	session.Answers = answers
	return session, nil
}

// Complete guarda las respuestas y marca la sesion como terminada una sola vez.
func (r *PgSessionRepository) Complete(ctx context.Context, id string, answers domain.AnswerMap, completedAt time.Time) error {
	payload, err := answers.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	const query = `
		UPDATE test_sessions
		SET answers_json = $2, completed_at = $3, is_completed = true
		WHERE id = $1 AND NOT is_completed
	`
	tag, err := r.pool.Exec(ctx, query, id, string(payload), completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionAlreadyCompleted
	}
	return nil
}
