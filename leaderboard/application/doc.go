// Package application contém os casos de uso do leaderboard: ingestão de score
// (validação, sanitização, merge, rank) e consultas (top N, estatísticas).
//
// Depende apenas de leaderboard/domain; não conhece net/http nem o formato do Store.
package application
