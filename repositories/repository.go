package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/song-bracket/models"
)

var (
	ErrSongNotFound    = errors.New("song not found")
	ErrClassNotFound   = errors.New("class not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrVoteNotFound    = errors.New("vote not found")
	ErrBracketNotFound = errors.New("bracket not found")

	ErrVoteConflict  = errors.New("vote for this match and class already exists")
	ErrMatchConflict = errors.New("match id already exists in bracket")
)

// MatchFilter - необязательные фильтры для списка матчей.
type MatchFilter struct {
	Status *models.MatchStatus
	Round  *int
}

type SongRepository interface {
	Create(ctx context.Context, song *models.Song) error
	GetByID(ctx context.Context, id string) (*models.Song, error)
	// ListByScope returns songs ordered by order, created_at, id.
	ListByScope(ctx context.Context, scope models.BracketScope, includeRetired bool) ([]*models.Song, error)
	Update(ctx context.Context, song *models.Song) error
	MaxOrder(ctx context.Context, scope models.BracketScope) (int, error)
	AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error)
}

type ClassRepository interface {
	Create(ctx context.Context, class *models.VoterGroup) error
	GetByID(ctx context.Context, id string) (*models.VoterGroup, error)
	// List returns classes ordered by order, created_at, id.
	List(ctx context.Context, includeRetired bool) ([]*models.VoterGroup, error)
	Update(ctx context.Context, class *models.VoterGroup) error
	MaxOrder(ctx context.Context) (int, error)
}

type MatchRepository interface {
	CreateMany(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, scope models.BracketScope, id string) (*models.Match, error)
	ListByScope(ctx context.Context, scope models.BracketScope, filter MatchFilter) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error)
	AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error)
}

type VoteRepository interface {
	Create(ctx context.Context, vote *models.Vote) error
	GetByID(ctx context.Context, id string) (*models.Vote, error)
	ListByMatch(ctx context.Context, scope models.BracketScope, matchID string) ([]*models.Vote, error)
	ListByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) ([]*models.Vote, error)
	ListByScope(ctx context.Context, scope models.BracketScope) ([]*models.Vote, error)
	UpdateVotedFor(ctx context.Context, id, votedForID string) error
	DeleteByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) (int, error)
	DeleteByMatch(ctx context.Context, scope models.BracketScope, matchID string) (int, error)
	DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error)
	AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error)
}

type BracketRepository interface {
	Create(ctx context.Context, bracket *models.Bracket) error
	GetByID(ctx context.Context, id string) (*models.Bracket, error)
	List(ctx context.Context) ([]*models.Bracket, error)
	// GetActive returns ErrBracketNotFound when no bracket is active.
	GetActive(ctx context.Context) (*models.Bracket, error)
	// SetActive marks id as the only active bracket.
	SetActive(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Repositories - набор репозиториев, привязанный к соединению или транзакции.
type Repositories struct {
	Songs    SongRepository
	Classes  ClassRepository
	Matches  MatchRepository
	Votes    VoteRepository
	Brackets BracketRepository
}

// Store - хранилище сущностей. WithinTx выполняет fn атомарно:
// все записи внутри fn применяются вместе или не применяются вовсе.
// Внутри транзакции все чтения выполняются до записей.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
