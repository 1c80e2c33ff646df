package domain

import (
	"errors"
	"time"
)

// Registration es la inscripcion de un participante a una variante del test.
type Registration struct {
	ID           string    `json:"id"`
	Variant      Variant   `json:"variant"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	HasTakenTest bool      `json:"has_taken_test"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	ID             string     `json:"id"`
	RegistrationID string     `json:"registration_id"`
	Variant        Variant    `json:"variant"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	IsCompleted    bool       `json:"is_completed"`
	Answers        AnswerMap  `json:"answers,omitempty"`
}

// TimeTakenMinutes trunca la duracion a minutos completos; 0 si la sesion no termino.
func (s Session) TimeTakenMinutes() int {
	if s.CompletedAt == nil || s.StartedAt.IsZero() {
		return 0
	}
	elapsed := s.CompletedAt.Sub(s.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}

var ErrSessionAlreadyCompleted = errors.New("test session already completed")
