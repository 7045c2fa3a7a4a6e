package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fleetops/tms/internal/application/port"
	"go.uber.org/zap"
)

// LocalDocumentStorage stores request documents on the local filesystem
// under a single base directory. Paths handed to it are relative; anything
// resolving outside the base directory is rejected.
type LocalDocumentStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalDocumentStorage creates a new LocalDocumentStorage
func NewLocalDocumentStorage(baseDir string, logger *zap.Logger) *LocalDocumentStorage {
	return &LocalDocumentStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content under the base directory and returns the stored
// relative path. Parent directories are created as needed.
func (s *LocalDocumentStorage) Save(relPath string, content []byte) (string, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create document directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write document",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Debug("Document stored",
		zap.String("path", relPath),
		zap.Int("size", len(content)))

	return relPath, nil
}

// Read returns the content of a stored document
func (s *LocalDocumentStorage) Read(relPath string) ([]byte, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return content, nil
}

// Delete removes a stored document. Deleting a missing document is not an
// error.
func (s *LocalDocumentStorage) Delete(relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete document",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// resolve joins the relative path onto the base directory and verifies the
// result stays inside it.
func (s *LocalDocumentStorage) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty document path")
	}

	fullPath := filepath.Join(s.baseDir, relPath)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return "", fmt.Errorf("path escapes base directory: %s", relPath)
	}

	return absPath, nil
}

// Verify interface compliance
var _ port.DocumentStorage = (*LocalDocumentStorage)(nil)
