package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
)

type FileService interface {
	// UploadEntryDocument stores a supporting document of a day entry and returns its storage key
	UploadEntryDocument(ctx context.Context, userID, entryID, filename, contentType string, content []byte) (string, error)

	OpenFile(ctx context.Context, path string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, path string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

func (s *fileServiceImpl) UploadEntryDocument(ctx context.Context, userID, entryID, filename, contentType string, content []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))

	// Generate unique filename
	key := path.Join("timesheets", userID, entryID, uuid.New().String()+ext)

	stored, err := s.storage.Upload(ctx, bytes.NewReader(content), key, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	return stored, nil
}

func (s *fileServiceImpl) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.storage.Download(ctx, path)
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}
