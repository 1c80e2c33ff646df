package email

import (
	"context"
	"errors"
)

var ErrSenderDisabled = errors.New("email sender disabled")

// ResultNotice es el aviso que recibe el participante al terminar el test.
type ResultNotice struct {
	ToEmail  string
	Name     string
	Score    int64
	Level    string
	IsJunior bool
}

// Sender define la interfaz para avisos de resultado.
type Sender interface {
	SendResultReady(ctx context.Context, notice ResultNotice) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendResultReady(_ context.Context, _ ResultNotice) error {
	if s.reason == "" {
		return ErrSenderDisabled
	}
	return errors.Join(ErrSenderDisabled, errors.New(s.reason))
}
