// Package infra contém as implementações de domain.Store:
//
//   - FileStore: JSON legível ({"scores": [...]}) com troca atômica via rename
//   - SQLiteStore: tabela única em SQLite (modernc.org/sqlite, sem cgo)
package infra
