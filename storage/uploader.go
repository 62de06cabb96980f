// Package storage выгружает снимки сеток в объектное хранилище.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string // публичный URL объекта
	ETag     string
}

// FileUploader - S3-совместимое хранилище. Delete отсутствующего ключа не ошибка.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
