package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
	"github.com/google/uuid"
)

type BracketInput struct {
	Name string `json:"name"`
}

type MigrationResult struct {
	Bracket *models.Bracket `json:"bracket"`
	Songs   int             `json:"songs"`
	Matches int             `json:"matches"`
	Votes   int             `json:"votes"`
}

// BracketAdminService управляет записями сеток и выбором текущей сетки.
type BracketAdminService interface {
	CreateBracket(ctx context.Context, input BracketInput) (*models.Bracket, error)
	ListBrackets(ctx context.Context) ([]*models.Bracket, error)
	ActivateBracket(ctx context.Context, bracketID string) (*models.Bracket, error)
	// ResolveScope: явный id, иначе активная сетка, иначе legacy,
	// если записей сеток нет совсем.
	ResolveScope(ctx context.Context, requestedID string) (models.BracketScope, error)
	// GetBracket returns nil for the legacy scope.
	GetBracket(ctx context.Context, scope models.BracketScope) (*models.Bracket, error)
	// MigrateLegacy создаёт сетку и переносит в неё все legacy-песни, матчи и голоса.
	MigrateLegacy(ctx context.Context, input BracketInput) (*MigrationResult, error)
}

type bracketAdminService struct {
	store  repositories.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewBracketAdminService(store repositories.Store, logger *slog.Logger, now func() time.Time) BracketAdminService {
	if now == nil {
		now = time.Now
	}
	return &bracketAdminService{store: store, logger: logger, now: now}
}

func (s *bracketAdminService) newBracket(input BracketInput) (*models.Bracket, error) {
	name := trimmed(input.Name)
	if name == "" {
		return nil, ErrBracketNameRequired
	}
	return &models.Bracket{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	}, nil
}

func (s *bracketAdminService) CreateBracket(ctx context.Context, input BracketInput) (*models.Bracket, error) {
	bracket, err := s.newBracket(input)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		count, err := repos.Brackets.Count(ctx)
		if err != nil {
			return err
		}
		// Первая сетка сразу становится активной.
		bracket.IsActive = count == 0
		return repos.Brackets.Create(ctx, bracket)
	})
	if err != nil {
		return nil, mapRepositoryError("create bracket", err)
	}

	s.logger.InfoContext(ctx, "Bracket created",
		slog.String("bracket_id", bracket.ID),
		slog.String("name", bracket.Name),
		slog.Bool("active", bracket.IsActive),
	)
	return bracket, nil
}

func (s *bracketAdminService) ListBrackets(ctx context.Context) ([]*models.Bracket, error) {
	list, err := s.store.Repos().Brackets.List(ctx)
	if err != nil {
		return nil, storeError("list brackets", err)
	}
	return list, nil
}

func (s *bracketAdminService) ActivateBracket(ctx context.Context, bracketID string) (*models.Bracket, error) {
	var bracket *models.Bracket
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		b, err := repos.Brackets.GetByID(ctx, bracketID)
		if err != nil {
			return err
		}
		if err := repos.Brackets.SetActive(ctx, b.ID); err != nil {
			return err
		}
		b.IsActive = true
		bracket = b
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError("activate bracket", err)
	}

	s.logger.InfoContext(ctx, "Bracket activated", slog.String("bracket_id", bracket.ID))
	return bracket, nil
}

func (s *bracketAdminService) ResolveScope(ctx context.Context, requestedID string) (models.BracketScope, error) {
	repos := s.store.Repos()
	if id := trimmed(requestedID); id != "" {
		if _, err := repos.Brackets.GetByID(ctx, id); err != nil {
			return models.BracketScope{}, mapRepositoryError("get bracket", err)
		}
		return models.ScopeFor(id), nil
	}

	active, err := repos.Brackets.GetActive(ctx)
	if err == nil {
		return active.Scope(), nil
	}
	if !errors.Is(err, repositories.ErrBracketNotFound) {
		return models.BracketScope{}, storeError("get active bracket", err)
	}

	count, err := repos.Brackets.Count(ctx)
	if err != nil {
		return models.BracketScope{}, storeError("count brackets", err)
	}
	if count > 0 {
		return models.BracketScope{}, ErrNoActiveBracket
	}
	return models.LegacyScope(), nil
}

func (s *bracketAdminService) GetBracket(ctx context.Context, scope models.BracketScope) (*models.Bracket, error) {
	if scope.IsLegacy() {
		return nil, nil
	}
	bracket, err := s.store.Repos().Brackets.GetByID(ctx, scope.BracketID)
	if err != nil {
		return nil, mapRepositoryError("get bracket", err)
	}
	return bracket, nil
}

func (s *bracketAdminService) MigrateLegacy(ctx context.Context, input BracketInput) (*MigrationResult, error) {
	bracket, err := s.newBracket(input)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{Bracket: bracket}
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		if err := repos.Brackets.Create(ctx, bracket); err != nil {
			return err
		}
		if err := repos.Brackets.SetActive(ctx, bracket.ID); err != nil {
			return err
		}
		var err error
		if result.Songs, err = repos.Songs.AssignLegacyToBracket(ctx, bracket.ID); err != nil {
			return err
		}
		if result.Matches, err = repos.Matches.AssignLegacyToBracket(ctx, bracket.ID); err != nil {
			return err
		}
		if result.Votes, err = repos.Votes.AssignLegacyToBracket(ctx, bracket.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError("migrate legacy bracket", err)
	}
	bracket.IsActive = true

	s.logger.InfoContext(ctx, "Legacy bracket migrated",
		slog.String("bracket_id", bracket.ID),
		slog.String("name", bracket.Name),
		slog.Int("songs", result.Songs),
		slog.Int("matches", result.Matches),
		slog.Int("votes", result.Votes),
	)
	return result, nil
}
