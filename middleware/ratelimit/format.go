// utilitário pequeno para formatação de valores numéricos nos headers X-RateLimit-* e Retry-After.

package ratelimit

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	// sem notação científica para valores comuns (ex: 0.1666 rps)
	return strconv.FormatFloat(v, 'f', -1, 64)
}
