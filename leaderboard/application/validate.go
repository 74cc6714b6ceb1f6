package application

import (
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"leaderboard-service/leaderboard/domain"
)

const (
	msgName  = "Name required (1-16 chars)"
	msgScore = "Invalid score"
	msgCoin  = "Coin required"
	msgTime  = "Invalid time"
)

// Submission é o corpo bruto de POST /api/score. Os campos são `any` porque a
// validação precisa distinguir "não é string/número" de "fora do intervalo".
type Submission struct {
	Name  any `json:"name"`
	Score any `json:"score"`
	Coin  any `json:"coin"`
	Time  any `json:"time"`
}

// Score é uma submissão já validada e sanitizada.
type Score struct {
	Name  string
	Score int
	Coin  string
	Time  float64
}

// Validate aplica as regras na ordem name, score, coin, time; o primeiro erro vence.
func Validate(sub Submission) (Score, error) {
	name, ok := sub.Name.(string)
	if !ok {
		return Score{}, invalid("name", msgName)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(name)); n < 1 || n > domain.MaxNameLen {
		return Score{}, invalid("name", msgName)
	}

	score, ok := number(sub.Score)
	if !ok || score < 0 || score > domain.MaxScore || score != math.Trunc(score) {
		return Score{}, invalid("score", msgScore)
	}

	coin, ok := sub.Coin.(string)
	if !ok || coin == "" {
		return Score{}, invalid("coin", msgCoin)
	}

	elapsed, ok := number(sub.Time)
	if !ok || elapsed < 0 || math.IsInf(elapsed, 0) {
		return Score{}, invalid("time", msgTime)
	}

	clean := SanitizeName(name)
	if clean == "" {
		// só tinha caracteres removidos
		return Score{}, invalid("name", msgName)
	}

	return Score{
		Name:  clean,
		Score: int(score),
		Coin:  SanitizeCoin(coin),
		Time:  elapsed,
	}, nil
}

// SanitizeName remove os caracteres < > " ' &, os espaços nas pontas e limita a 16 runas.
// Aplicar duas vezes dá o mesmo resultado.
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1
		}
		return r
	}, name)
	return truncateRunes(name, domain.MaxNameLen)
}

func SanitizeCoin(coin string) string {
	return truncateRunes(coin, domain.MaxCoinLen)
}

// truncateRunes apara espaços antes e depois do corte, para o resultado ser estável.
func truncateRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func invalid(field, msg string) error {
	return &domain.ValidationError{Field: field, Message: msg}
}
