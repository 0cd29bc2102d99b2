package domain

import "time"

const (
	// DefaultWindow é a duração fixa de cada janela de contagem.
	DefaultWindow = 10 * time.Second

	// StallThreshold é o contador (pós-incremento) a partir do qual a requisição
	// é atrasada. É fixo e NÃO depende de Capacity: o comportamento herdado
	// compara sempre com 2, mesmo quando a capacidade configurada é outra.
	// Mantido assim até o dono do sistema decidir o contrário.
	StallThreshold = 2

	// DefaultStallDelay é quanto uma requisição atrasada espera antes de receber
	// a resposta substituta.
	DefaultStallDelay = 10 * time.Second
)

// RateWindow é o estado de contagem de um único endpoint.
//
// Não é seguro para uso concorrente: quem o possui (ex: infra.MemoryGate)
// deve serializar as chamadas de Admit.
type RateWindow struct {
	Capacity int
	Duration time.Duration
	End      time.Time
	Count    int
}

// NewRateWindow cria uma janela que começa em start.
func NewRateWindow(capacity int, window time.Duration, start time.Time) RateWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	return RateWindow{
		Capacity: capacity,
		Duration: window,
		End:      start.Add(window),
	}
}

// Admit contabiliza uma requisição observada em now e decide se ela segue.
//
// A ordem importa: o incremento acontece antes da verificação de expiração,
// então a requisição que cruza a fronteira zera o contador e segue com Count=0.
func (w *RateWindow) Admit(now time.Time) Decision {
	w.Count++

	if now.After(w.End) {
		w.Count = 0
		w.End = now.Add(w.Duration)
	}

	dec := Decision{
		Verdict:   VerdictProceed,
		Count:     w.Count,
		Capacity:  w.Capacity,
		WindowEnd: w.End,
	}
	if w.Count >= StallThreshold {
		dec.Verdict = VerdictDelayed
	}
	return dec
}
