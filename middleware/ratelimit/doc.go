// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela deslizante, token bucket, semáforo, stats)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no servidor de leaderboard:
//
//  1. Extrai a chave do cliente (header/XFF/IP)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com {"error": ...} (rate limit) ou 503 (concorrência)
//  4. Se permitido, chama o próximo handler (ex: POST /api/score)
//
// Variáveis de ambiente do binário (cmd/leaderboard) controlam o comportamento,
// como RATE_MAX, RATE_WINDOW, RATE_ALGORITHM, CONCURRENCY_MAX e CONCURRENCY_TIMEOUT.
package ratelimit
