package domain

import "context"

// SlotPool limita quantas requisições de um endpoint executam ao mesmo tempo.
// Com capacidade 1 reproduz o modelo de um único worker por endpoint.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar. Ao adquirir,
// retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	Cap() int
}
