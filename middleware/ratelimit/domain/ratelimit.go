package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica o cliente (IP, header configurado, etc).
type Key string

// Limiter representa algo que pode decidir se uma ação é permitida agora.
//
// A implementação pode ser janela deslizante (padrão) ou token-bucket
// (golang.org/x/time/rate).
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave.
// A implementação mantém o estado por chave e a limpeza periódica.
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
