package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"leaderboard-service/leaderboard/domain"
)

// FileStore persiste o leaderboard em um arquivo JSON.
//
// Save grava num arquivo temporário no mesmo diretório e faz rename por cima do
// destino: um leitor vê o arquivo antigo ou o novo, nunca um parcial.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Init cria o arquivo com um leaderboard vazio se ele ainda não existir.
func (s *FileStore) Init(ctx context.Context) error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	return s.Save(ctx, domain.Board{})
}

func (s *FileStore) Load(_ context.Context) domain.Board {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("leaderboard: read %s failed, serving empty board: %v", s.path, err)
		}
		return emptyBoard()
	}

	var b domain.Board
	if err := json.Unmarshal(data, &b); err != nil {
		log.Printf("leaderboard: malformed %s, serving empty board: %v", s.path, err)
		return emptyBoard()
	}
	if b.Scores == nil {
		b.Scores = []domain.Entry{}
	}
	return b
}

func (s *FileStore) Save(_ context.Context, b domain.Board) error {
	if b.Scores == nil {
		b.Scores = []domain.Entry{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func emptyBoard() domain.Board {
	return domain.Board{Scores: []domain.Entry{}}
}
