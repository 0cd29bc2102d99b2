package domain

import (
	"context"
	"time"
)

// Verdict é o resultado de uma admissão. Não existe "negado": toda requisição
// segue, imediatamente ou depois do atraso fixo.
type Verdict int

const (
	VerdictProceed Verdict = iota
	VerdictDelayed
)

func (v Verdict) String() string {
	switch v {
	case VerdictProceed:
		return "proceed"
	case VerdictDelayed:
		return "delayed"
	default:
		return "unknown"
	}
}

type Decision struct {
	Verdict Verdict
	// Delay só é preenchido pela camada application quando Verdict=VerdictDelayed.
	Delay time.Duration

	Count     int
	Capacity  int
	WindowEnd time.Time
}

func (d Decision) Delayed() bool { return d.Verdict == VerdictDelayed }

// Gate representa o limitador de um único endpoint.
//
// A implementação pode ser em memória (mutex) ou distribuída (Redis); em ambos
// os casos a ordem de Admit deve ser a mesma de RateWindow.Admit.
type Gate interface {
	Admit(ctx context.Context, now time.Time) (Decision, error)
}

// Clock abstrai o tempo para que a espera possa ser simulada em testes.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock implementa Clock com o relógio real.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
