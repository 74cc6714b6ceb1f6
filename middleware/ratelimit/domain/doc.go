// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas,
// o que permite testar as regras de admissão sem servidor.
package domain
