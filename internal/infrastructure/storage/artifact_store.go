package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// FileArtifactStore хранит временные загрузки и итоговое изображение на диске.
// Итоговый файл перезаписывается при каждой проверке через временный файл и rename.
type FileArtifactStore struct {
	mu         sync.RWMutex
	outputPath string
	tempDir    string
}

// NewFileArtifactStore создаёт хранилище. Пустой tempDir означает системный каталог.
func NewFileArtifactStore(outputPath, tempDir string) *FileArtifactStore {
	return &FileArtifactStore{
		outputPath: outputPath,
		tempDir:    tempDir,
	}
}

// StageUpload записывает загрузку во временный файл
func (s *FileArtifactStore) StageUpload(ctx context.Context, data []byte, ext string) (string, func(), error) {
	pattern := "upload-*"
	if ext != "" {
		pattern += "." + ext
	}

	f, err := os.CreateTemp(s.tempDir, pattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		_ = os.Remove(path)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close temp file: %w", err)
	}

	return path, cleanup, nil
}

// SaveOutput атомарно заменяет итоговое изображение
func (s *FileArtifactStore) SaveOutput(ctx context.Context, jpeg []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".output-*.jpg")
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(jpeg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(tmpPath, s.outputPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("replace output file: %w", err)
	}

	return s.outputPath, nil
}

// OpenOutput читает итоговое изображение
func (s *FileArtifactStore) OpenOutput(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.outputPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, entity.ErrNoArtifact
	}
	if err != nil {
		return nil, fmt.Errorf("read output file: %w", err)
	}
	return data, nil
}

// OutputPath путь итогового изображения
func (s *FileArtifactStore) OutputPath() string {
	return s.outputPath
}

var _ port.ArtifactStore = (*FileArtifactStore)(nil)
