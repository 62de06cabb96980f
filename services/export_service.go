package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gosimple/slug"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/storage"
)

const exportContentType = "application/json"

type ExportResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	ExportedAt time.Time `json:"exported_at"`
}

// BracketSnapshot - содержимое выгружаемого файла.
type BracketSnapshot struct {
	Name       string       `json:"name"`
	ExportedAt time.Time    `json:"exported_at"`
	View       *BracketView `json:"bracket"`
}

type ExportService interface {
	// Export выгружает снимок сетки в объектное хранилище.
	Export(ctx context.Context, scope models.BracketScope) (*ExportResult, error)
	Remove(ctx context.Context, scope models.BracketScope) error
}

type exportService struct {
	uploader storage.FileUploader
	views    ViewService
	brackets BracketAdminService
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportService: при uploader == nil все операции возвращают ErrExportDisabled.
func NewExportService(
	uploader storage.FileUploader,
	views ViewService,
	brackets BracketAdminService,
	logger *slog.Logger,
	now func() time.Time,
) ExportService {
	if now == nil {
		now = time.Now
	}
	return &exportService{
		uploader: uploader,
		views:    views,
		brackets: brackets,
		logger:   logger,
		now:      now,
	}
}

func (s *exportService) bracketName(ctx context.Context, scope models.BracketScope) (string, error) {
	bracket, err := s.brackets.GetBracket(ctx, scope)
	if err != nil {
		return "", err
	}
	if bracket == nil {
		return scope.String(), nil
	}
	return bracket.Name, nil
}

// ExportKey строит ключ объекта: exports/{slug(name)}/{bracketId|legacy}.json.
func ExportKey(name string, scope models.BracketScope) string {
	s := slug.Make(name)
	if s == "" {
		s = "bracket"
	}
	return fmt.Sprintf("exports/%s/%s.json", s, scope.String())
}

func (s *exportService) Export(ctx context.Context, scope models.BracketScope) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}

	name, err := s.bracketName(ctx, scope)
	if err != nil {
		return nil, err
	}
	view, err := s.views.BracketView(ctx, scope)
	if err != nil {
		return nil, err
	}

	exportedAt := s.now().UTC()
	body, err := json.MarshalIndent(BracketSnapshot{Name: name, ExportedAt: exportedAt, View: view}, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket snapshot: %w", err)
	}

	key := ExportKey(name, scope)
	uploaded, err := s.uploader.Upload(ctx, key, exportContentType, bytes.NewReader(body))
	if err != nil {
		return nil, storeError("upload export", err)
	}

	s.logger.InfoContext(ctx, "Bracket exported",
		slog.String("bracket", scope.String()),
		slog.String("key", uploaded.Key),
		slog.Int("bytes", len(body)),
	)
	return &ExportResult{Key: uploaded.Key, URL: uploaded.Location, ExportedAt: exportedAt}, nil
}

func (s *exportService) Remove(ctx context.Context, scope models.BracketScope) error {
	if s.uploader == nil {
		return ErrExportDisabled
	}
	name, err := s.bracketName(ctx, scope)
	if err != nil {
		return err
	}
	if err := s.uploader.Delete(ctx, ExportKey(name, scope)); err != nil {
		return storeError("delete export", err)
	}
	return nil
}

func isExportDisabled(err error) bool {
	return errors.Is(err, ErrExportDisabled)
}
