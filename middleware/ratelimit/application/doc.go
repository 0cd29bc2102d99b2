// Package application contém os casos de uso do gate de requisições e do
// limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Admit(ctx) retorna uma Decision (segue/atrasada + delay) e
// Service.Wait cumpre o atraso sem bloquear outras requisições.
package application
