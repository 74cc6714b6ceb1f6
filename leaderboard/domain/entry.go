package domain

import (
	"slices"
	"strings"
	"time"
)

const (
	// MaxEntries é o tamanho máximo persistido do leaderboard.
	MaxEntries = 200
	// TopN é quantas entradas as leituras e o retorno do submit devolvem.
	TopN = 50

	MaxNameLen = 16
	MaxCoinLen = 6
	MaxScore   = 999999

	// Unranked é o rank devolvido quando a entrada ficou fora do corte de MaxEntries.
	Unranked = -1
)

// Entry é o melhor resultado registrado de um jogador.
type Entry struct {
	Name  string    `json:"name"`
	Score int       `json:"score"`
	Coin  string    `json:"coin"`
	Time  float64   `json:"time"`
	Date  time.Time `json:"date"`
}

// Board é o leaderboard persistido: {"scores": [...]}.
type Board struct {
	Scores []Entry `json:"scores"`
}

// NameKey é a chave de unicidade (case-insensitive) de um jogador.
func NameKey(name string) string { return strings.ToLower(name) }

// IndexOf devolve a posição (0-based) do jogador ou -1.
func (b Board) IndexOf(name string) int {
	key := NameKey(name)
	return slices.IndexFunc(b.Scores, func(e Entry) bool { return NameKey(e.Name) == key })
}

// Rank devolve a posição 1-based do jogador, ou Unranked.
func (b Board) Rank(name string) int {
	i := b.IndexOf(name)
	if i < 0 {
		return Unranked
	}
	return i + 1
}

// Sort ordena por score decrescente; empates mantêm a ordem anterior.
func (b *Board) Sort() {
	slices.SortStableFunc(b.Scores, func(x, y Entry) int { return y.Score - x.Score })
}

// Truncate mantém só as n primeiras entradas.
func (b *Board) Truncate(n int) {
	if n >= 0 && len(b.Scores) > n {
		b.Scores = slices.Clip(b.Scores[:n])
	}
}

// Top devolve uma cópia das n primeiras entradas (nunca nil).
func (b Board) Top(n int) []Entry {
	if n > len(b.Scores) {
		n = len(b.Scores)
	}
	if n < 0 {
		n = 0
	}
	out := make([]Entry, n)
	copy(out, b.Scores[:n])
	return out
}

// Clone copia o slice de entradas para que o chamador possa mutar sem afetar o original.
func (b Board) Clone() Board {
	return Board{Scores: slices.Clone(b.Scores)}
}
