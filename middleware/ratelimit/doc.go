// Package ratelimit fornece adapters HTTP (net/http) para o gate de requisições
// por endpoint e para o limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: janela fixa, decisões e contratos (sem dependência de net/http)
//   - application: casos de uso (admitir, esperar o atraso, adquirir vaga)
//   - infra: gates em memória/Redis, semáforo, stores de estatística
//   - ratelimit (este pacote): middlewares HTTP, composição de guards e
//     tradução da decisão para status/headers
//
// Fluxo de uma rota protegida:
//
//  1. O gate do endpoint conta a requisição e decide
//  2. Se "proceed", chama o handler real
//  3. Se "delayed", espera o atraso fixo e responde um placeholder
//     (X-RateLimit-Status: delayed) sem chamar o handler real
//
// Nenhuma requisição é rejeitada pelo gate. Só o guard de concorrência pode
// responder 503, quando configurado com timeout.
package ratelimit
