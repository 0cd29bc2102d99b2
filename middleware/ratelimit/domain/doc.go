// Package domain define contratos e tipos de domínio do gate de requisições
// (janela fixa por endpoint), do limite de concorrência e das estatísticas.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A regra de contagem (RateWindow.Admit) é pura: recebe o instante atual e
// devolve uma Decision, o que permite testes determinísticos sem relógio real.
package domain
