// Package domain define os tipos do leaderboard (Entry, Board), as regras de
// ordenação/deduplicação e o contrato Store.
//
// Não depende de net/http nem do formato de persistência.
package domain
