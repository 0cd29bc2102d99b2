// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - MemoryGate: janela fixa em memória, serializada por mutex
//   - RedisGate: mesma regra executada atomicamente num script Lua
//   - GateStore: um gate por endpoint, criado na montagem das rotas
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore / PrometheusStatsStore: estatísticas
package infra
