package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
)

// FileStorage keeps uploaded material files in memory. It cannot sign URLs,
// so downloads go through the API's file endpoint.
type FileStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewFileStorage() *FileStorage {
	return &FileStorage{blobs: make(map[string][]byte)}
}

func (f *FileStorage) Upload(ctx context.Context, courseID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return "", app_errors.ErrFileSize
	}
	key := fmt.Sprintf("materials/%s/%s%s", courseID, uuid.NewString(), filepath.Ext(filename))
	f.mu.Lock()
	f.blobs[key] = data
	f.mu.Unlock()
	return key, nil
}

func (f *FileStorage) URL(ctx context.Context, objectKey string) (string, error) {
	return "", nil
}

func (f *FileStorage) Open(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	f.mu.RLock()
	data, ok := f.blobs[objectKey]
	f.mu.RUnlock()
	if !ok {
		return nil, app_errors.ErrMaterialNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *FileStorage) Delete(ctx context.Context, objectKey string) error {
	f.mu.Lock()
	delete(f.blobs, objectKey)
	f.mu.Unlock()
	return nil
}
