package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
	"github.com/google/uuid"
)

type CreateSongInput struct {
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	YouTubeURL *string `json:"youtube_url"`
}

type UpdateSongInput struct {
	Title      *string `json:"title"`
	Artist     *string `json:"artist"`
	YouTubeURL *string `json:"youtube_url"`
}

type SongService interface {
	AddSong(ctx context.Context, scope models.BracketScope, input CreateSongInput) (*models.Song, error)
	ListSongs(ctx context.Context, scope models.BracketScope, includeRetired bool) ([]*models.Song, error)
	UpdateSong(ctx context.Context, songID string, input UpdateSongInput) (*models.Song, error)
	// RetireSong помечает песню удалённой. Сгенерированные матчи не меняются.
	RetireSong(ctx context.Context, songID string) (*models.Song, error)
	RestoreSong(ctx context.Context, songID string) (*models.Song, error)
	// MoveSong меняет песню местами с соседом среди активных песен её сетки.
	MoveSong(ctx context.Context, songID string, direction Direction) ([]*models.Song, error)
}

type songService struct {
	store  repositories.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewSongService(store repositories.Store, logger *slog.Logger, now func() time.Time) SongService {
	if now == nil {
		now = time.Now
	}
	return &songService{store: store, logger: logger, now: now}
}

func (s *songService) AddSong(ctx context.Context, scope models.BracketScope, input CreateSongInput) (*models.Song, error) {
	title, artist := trimmed(input.Title), trimmed(input.Artist)
	if title == "" || artist == "" {
		return nil, ErrSongFieldsRequired
	}

	song := &models.Song{
		ID:         uuid.NewString(),
		BracketID:  scope.BracketID,
		Title:      title,
		Artist:     artist,
		YouTubeURL: optionalString(input.YouTubeURL),
		Status:     models.EntityStatusActive,
		CreatedAt:  s.now().UTC(),
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		maxOrder, err := repos.Songs.MaxOrder(ctx, scope)
		if err != nil {
			return err
		}
		song.Order = maxOrder + 1
		return repos.Songs.Create(ctx, song)
	})
	if err != nil {
		return nil, mapRepositoryError("add song", err)
	}

	s.logger.InfoContext(ctx, "Song added",
		slog.String("bracket", scope.String()),
		slog.String("song_id", song.ID),
		slog.Int("order", song.Order),
	)
	return song, nil
}

func (s *songService) ListSongs(ctx context.Context, scope models.BracketScope, includeRetired bool) ([]*models.Song, error) {
	songs, err := s.store.Repos().Songs.ListByScope(ctx, scope, includeRetired)
	if err != nil {
		return nil, storeError("list songs", err)
	}
	return songs, nil
}

func (s *songService) modify(ctx context.Context, songID string, fn func(song *models.Song) error) (*models.Song, error) {
	var song *models.Song
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		current, err := repos.Songs.GetByID(ctx, songID)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		if err := repos.Songs.Update(ctx, current); err != nil {
			return err
		}
		song = current
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError("update song", err)
	}
	return song, nil
}

func (s *songService) UpdateSong(ctx context.Context, songID string, input UpdateSongInput) (*models.Song, error) {
	return s.modify(ctx, songID, func(song *models.Song) error {
		if input.Title != nil {
			song.Title = trimmed(*input.Title)
		}
		if input.Artist != nil {
			song.Artist = trimmed(*input.Artist)
		}
		if input.YouTubeURL != nil {
			song.YouTubeURL = optionalString(input.YouTubeURL)
		}
		if song.Title == "" || song.Artist == "" {
			return ErrSongFieldsRequired
		}
		return nil
	})
}

func (s *songService) RetireSong(ctx context.Context, songID string) (*models.Song, error) {
	song, err := s.modify(ctx, songID, func(song *models.Song) error {
		song.Status = models.EntityStatusRetired
		return nil
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Song retired", slog.String("song_id", songID))
	}
	return song, err
}

func (s *songService) RestoreSong(ctx context.Context, songID string) (*models.Song, error) {
	song, err := s.modify(ctx, songID, func(song *models.Song) error {
		song.Status = models.EntityStatusActive
		return nil
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Song restored", slog.String("song_id", songID))
	}
	return song, err
}

func (s *songService) MoveSong(ctx context.Context, songID string, direction Direction) ([]*models.Song, error) {
	if !direction.Valid() {
		return nil, ErrInvalidDirection
	}

	var ordered []*models.Song
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		song, err := repos.Songs.GetByID(ctx, songID)
		if err != nil {
			return err
		}
		songs, err := repos.Songs.ListByScope(ctx, models.ScopeFor(song.BracketID), false)
		if err != nil {
			return err
		}
		ordered, err = swapAndRenumber(songs, songID, direction,
			func(s *models.Song) string { return s.ID },
			func(s *models.Song) int { return s.Order },
			func(s *models.Song, order int) { s.Order = order },
			func(s *models.Song) error { return repos.Songs.Update(ctx, s) },
		)
		return err
	})
	if err != nil {
		return nil, mapRepositoryError("move song", err)
	}
	return ordered, nil
}

// swapAndRenumber меняет элемент с соседом и перенумеровывает порядок с 1,
// сохраняя только изменившиеся элементы. Неактивный элемент не найдётся в списке.
func swapAndRenumber[T any](
	items []T,
	id string,
	direction Direction,
	idOf func(T) string,
	orderOf func(T) int,
	setOrder func(T, int),
	save func(T) error,
) ([]T, error) {
	idx := -1
	for i, it := range items {
		if idOf(it) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCannotMoveRetired
	}

	if other := neighbourIndex(idx, len(items), direction); other >= 0 {
		items[idx], items[other] = items[other], items[idx]
	}
	for i, it := range items {
		if orderOf(it) == i+1 {
			continue
		}
		setOrder(it, i+1)
		if err := save(it); err != nil {
			return nil, err
		}
	}
	return items, nil
}
