package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leaderboard-service/leaderboard/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore persiste o leaderboard numa tabela SQLite.
//
// Save substitui todas as linhas dentro de uma transação, então leitores
// veem o board anterior ou o novo por inteiro.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// cada conexão nova teria seu próprio banco em memória
		db.SetMaxOpenConns(1)
	}
	_, _ = db.Exec(`PRAGMA journal_mode = WAL;`)
	_, _ = db.Exec(`PRAGMA synchronous = NORMAL;`)
	_, _ = db.Exec(`PRAGMA busy_timeout = 5000;`)
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS scores (
  position INTEGER PRIMARY KEY,
  name_key TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  score INTEGER NOT NULL,
  coin TEXT NOT NULL,
  time REAL NOT NULL,
  date_ms INTEGER NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("create scores table: %w", err)
	}
	return nil
}

// Init não precisa criar nada além do schema: tabela vazia é um board vazio.
func (s *SQLiteStore) Init(context.Context) error { return nil }

func (s *SQLiteStore) Load(ctx context.Context) domain.Board {
	b, err := s.load(ctx)
	if err != nil {
		log.Printf("leaderboard: sqlite load failed, serving empty board: %v", err)
		return emptyBoard()
	}
	return b
}

func (s *SQLiteStore) load(ctx context.Context) (domain.Board, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, score, coin, time, date_ms
FROM scores
ORDER BY position
`)
	if err != nil {
		return domain.Board{}, err
	}
	defer rows.Close()

	b := emptyBoard()
	for rows.Next() {
		var e domain.Entry
		var dateMS int64
		if err := rows.Scan(&e.Name, &e.Score, &e.Coin, &e.Time, &dateMS); err != nil {
			return domain.Board{}, err
		}
		e.Date = time.UnixMilli(dateMS).UTC()
		b.Scores = append(b.Scores, e)
	}
	return b, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, b domain.Board) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM scores`); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO scores (position, name_key, name, score, coin, time, date_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range b.Scores {
		if _, err = stmt.ExecContext(ctx, i, domain.NameKey(e.Name), e.Name, e.Score, e.Coin, e.Time, e.Date.UnixMilli()); err != nil {
			return fmt.Errorf("insert %q: %w", e.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
