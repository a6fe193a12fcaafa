package storage

import (
	"context"
	"errors"
	"io"
)

// ErrStorageDisabled is returned when no storage backend is configured.
var ErrStorageDisabled = errors.New("file storage is not configured")

type disabledStorage struct{}

// NewDisabledStorage returns a FileStorage that rejects every upload.
// Text-only submissions keep working without a storage backend.
func NewDisabledStorage() FileStorage {
	return disabledStorage{}
}

func (disabledStorage) Upload(context.Context, io.Reader, string, string) (*UploadResult, error) {
	return nil, ErrStorageDisabled
}

func (disabledStorage) Delete(context.Context, string) error {
	return ErrStorageDisabled
}
