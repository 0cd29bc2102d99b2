package ratelimit

import "net/http"

// Guard roda antes do handler real e pode encerrar a requisição sozinho.
type Guard = func(next http.Handler) http.Handler

// Chain compõe os guards na ordem dada: o primeiro é o mais externo, ou seja,
// o primeiro a ver a requisição. Guards nil são ignorados.
func Chain(guards ...Guard) Guard {
	return func(next http.Handler) http.Handler {
		for i := len(guards) - 1; i >= 0; i-- {
			if guards[i] != nil {
				next = guards[i](next)
			}
		}
		return next
	}
}
