package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore — файловая реализация Store: одна JSON-карта на диске.
// Файл перечитывается при создании и перезаписывается после каждой мутации.
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// NewFileStore открывает (или создаёт пустым) хранилище по указанному пути.
func NewFileStore(path string) (*FileStore, error) {
	const op = "kv.NewFileStore"

	s := &FileStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// Get возвращает значение ключа или ErrNotFound.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}

	return v, nil
}

// Set записывает значение и сбрасывает карту на диск.
func (s *FileStore) Set(key, value string) error {
	const op = "kv.FileStore.Set"

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value

	if err := s.flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete удаляет ключ; отсутствие ключа не ошибка.
func (s *FileStore) Delete(key string) error {
	const op = "kv.FileStore.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}

	delete(s.data, key)

	if err := s.flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// flush пишет карту атомарно: во временный файл с последующим rename.
// Вызывается под мьютексом.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
