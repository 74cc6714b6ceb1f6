package domain

import "context"

// Store é a persistência do leaderboard.
//
// Load é tolerante: arquivo ausente, erro de I/O ou conteúdo inválido viram um
// Board vazio (a implementação registra a causa em log). Save deve ser atômico
// do ponto de vista de quem lê: nunca um estado parcialmente escrito.
type Store interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) Board
	Save(ctx context.Context, b Board) error
}
