package services

import (
	"errors"
	"fmt"
)

// Категории ошибок. Конкретные ошибки оборачивают одну из них,
// а mapServiceErrorToHTTP выбирает статус по категории.
var (
	ErrNotFound             = errors.New("requested resource not found")
	ErrValidationFailed     = errors.New("validation failed")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrStore                = errors.New("store operation failed")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

var (
	// Ошибки валидации
	ErrMissingInformation  = fmt.Errorf("%w: missing information", ErrValidationFailed)
	ErrInvalidBracketSize  = fmt.Errorf("%w: bracket size must be a power of two and at least 2", ErrValidationFailed)
	ErrNotEnoughSongs      = fmt.Errorf("%w: not enough songs", ErrValidationFailed)
	ErrInvalidWinner       = fmt.Errorf("%w: winner must be one of the match contestants", ErrValidationFailed)
	ErrInvalidContestant   = fmt.Errorf("%w: voted song is not a contestant of this match", ErrValidationFailed)
	ErrInvalidDirection    = fmt.Errorf("%w: direction must be \"up\" or \"down\"", ErrValidationFailed)
	ErrSongFieldsRequired  = fmt.Errorf("%w: title and artist are required", ErrValidationFailed)
	ErrClassNameRequired   = fmt.Errorf("%w: class name is required", ErrValidationFailed)
	ErrBracketNameRequired = fmt.Errorf("%w: bracket name is required", ErrValidationFailed)

	// Ошибки состояния
	ErrMatchNotOpen           = fmt.Errorf("%w: match is not open for voting", ErrInvalidState)
	ErrAlreadyVoted           = fmt.Errorf("%w: already voted", ErrInvalidState)
	ErrInvalidMatchTransition = fmt.Errorf("%w: invalid match status transition", ErrInvalidState)
	ErrMatchIncomplete        = fmt.Errorf("%w: match needs both contestants before opening", ErrInvalidState)
	ErrNoActiveBracket        = fmt.Errorf("%w: no active bracket", ErrInvalidState)
	ErrExportDisabled         = fmt.Errorf("%w: export storage is not configured", ErrInvalidState)
	ErrCannotMoveRetired      = fmt.Errorf("%w: only active entries can be moved", ErrInvalidState)

	// Не найдено
	ErrSongNotFound    = fmt.Errorf("%w: song not found", ErrNotFound)
	ErrClassNotFound   = fmt.Errorf("%w: class not found", ErrNotFound)
	ErrMatchNotFound   = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrVoteNotFound    = fmt.Errorf("%w: vote not found", ErrNotFound)
	ErrBracketNotFound = fmt.Errorf("%w: bracket not found", ErrNotFound)

	// Аутентификация
	ErrInvalidPassword = fmt.Errorf("%w: invalid password", ErrAuthenticationFailed)
	ErrInvalidSession  = fmt.Errorf("%w: invalid or expired session", ErrAuthenticationFailed)
)

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
