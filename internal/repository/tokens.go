// Package repository содержит реализацию хранилища токенов.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrTokenNotFound возвращается, если токен с указанным ключом отсутствует в хранилище.
var ErrTokenNotFound = errors.New("token not found")

// Store описывает контракт хранилища токенов.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// FileStore хранит токены в JSON-файле, переживающем перезапуск процесса.
// Доступ защищён мьютексом: запросы обрабатываются конкурентно,
// действует правило "последняя запись побеждает".
type FileStore struct {
	mu     sync.Mutex
	path   string
	tokens map[string]string
}

// NewFileStore создаёт хранилище токенов по указанному пути и
// загружает уже сохранённые токены, если файл существует.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		tokens: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.tokens); err != nil {
			return nil, fmt.Errorf("decode token file: %w", err)
		}
	}

	return s, nil
}

// Set сохраняет токен по ключу и сбрасывает хранилище на диск.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key] = value
	return s.flush()
}

// Get возвращает токен по ключу или ErrTokenNotFound.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.tokens[key]
	if !ok || v == "" {
		return "", ErrTokenNotFound
	}
	return v, nil
}

// Delete удаляет токен по ключу. Удаление отсутствующего ключа не является ошибкой.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, key)
	return s.flush()
}

func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}

	// Запись во временный файл с последующим переименованием,
	// чтобы файл токенов не оставался в полузаписанном состоянии.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}

	return nil
}
