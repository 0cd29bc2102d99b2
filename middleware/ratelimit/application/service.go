package application

import (
	"context"
	"time"

	"analytics-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do gate de um endpoint.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão
// e sabe esperar o atraso correspondente.
type Service struct {
	Gate       domain.Gate
	Clock      domain.Clock
	StallDelay time.Duration

	// OnError é chamado quando o backend do gate falha. A requisição segue
	// mesmo assim: o gate nunca rejeita.
	OnError func(err error)
}

func (s Service) Admit(ctx context.Context) domain.Decision {
	return s.AdmitAt(ctx, s.Now())
}

// AdmitAt decide com um instante já lido do relógio.
func (s Service) AdmitAt(ctx context.Context, now time.Time) domain.Decision {
	if s.Gate == nil {
		return domain.Decision{Verdict: domain.VerdictProceed}
	}

	dec, err := s.Gate.Admit(ctx, now)
	if err != nil {
		if s.OnError != nil {
			s.OnError(err)
		}
		return domain.Decision{Verdict: domain.VerdictProceed}
	}
	if dec.Delayed() {
		dec.Delay = s.stallDelay()
	}
	return dec
}

// Wait espera o atraso da decisão. A janela não é reavaliada durante a espera.
//
// A espera só é interrompida pelo contexto: se o cliente desconectar antes
// do fim, retorna ctx.Err() e a requisição é abandonada sem resposta, em vez
// de cumprir o atraso inteiro para ninguém.
func (s Service) Wait(ctx context.Context, dec domain.Decision) error {
	if !dec.Delayed() || dec.Delay <= 0 {
		return nil
	}

	select {
	case <-s.clock().After(dec.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s Service) stallDelay() time.Duration {
	if s.StallDelay <= 0 {
		return domain.DefaultStallDelay
	}
	return s.StallDelay
}

// Now é o instante usado nas decisões (e nas estatísticas do middleware).
func (s Service) Now() time.Time { return s.clock().Now() }

func (s Service) clock() domain.Clock {
	if s.Clock == nil {
		return domain.SystemClock{}
	}
	return s.Clock
}
