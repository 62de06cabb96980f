package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isValidStatusTransition(current, next models.MatchStatus) bool {
	allowedTransitions := map[models.MatchStatus][]models.MatchStatus{
		models.MatchStatusLocked: {models.MatchStatusOpen},
		models.MatchStatusOpen:   {models.MatchStatusClosed, models.MatchStatusLocked},
		models.MatchStatusClosed: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// mapRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func mapRepositoryError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrSongNotFound):
		return ErrSongNotFound
	case errors.Is(err, repositories.ErrClassNotFound):
		return ErrClassNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrVoteNotFound):
		return ErrVoteNotFound
	case errors.Is(err, repositories.ErrBracketNotFound):
		return ErrBracketNotFound
	case errors.Is(err, repositories.ErrVoteConflict):
		return ErrAlreadyVoted
	}
	// Ошибки сервисного слоя, вернувшиеся из WithinTx, не оборачиваем повторно.
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrStore) {
		return err
	}
	return storeError(op, err)
}

// seedingOrder сортирует песни для посева: order, затем время добавления, затем id.
func seedingOrder(songs []*models.Song) {
	sort.SliceStable(songs, func(i, j int) bool {
		a, b := songs[i], songs[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func dayOf(t time.Time) string {
	return t.UTC().Format(models.DayLayout)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Direction - направление перемещения в списке.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// neighbourIndex возвращает индекс соседа для обмена или -1 на краю списка.
func neighbourIndex(idx, length int, d Direction) int {
	switch d {
	case DirectionUp:
		if idx > 0 {
			return idx - 1
		}
	case DirectionDown:
		if idx < length-1 {
			return idx + 1
		}
	}
	return -1
}
