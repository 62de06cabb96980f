package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/song-bracket/brackets"
	"github.com/Dosada05/song-bracket/metrics"
	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

type MatchService interface {
	ListMatches(ctx context.Context, scope models.BracketScope, filter repositories.MatchFilter) ([]*models.Match, error)
	GetMatch(ctx context.Context, scope models.BracketScope, matchID string) (*models.Match, error)
	// OpenMatch: locked -> open, оба слота должны быть заполнены.
	OpenMatch(ctx context.Context, scope models.BracketScope, matchID string) (*models.Match, error)
	// ResolveMatch: open -> closed и запись победителя в родительский матч
	// одной транзакцией.
	ResolveMatch(ctx context.Context, scope models.BracketScope, matchID, winnerID string) (*models.Match, error)
	// UnopenMatch: open -> locked. Голоса остаются на месте.
	UnopenMatch(ctx context.Context, scope models.BracketScope, matchID string) (*models.Match, error)
	ClearVotes(ctx context.Context, scope models.BracketScope, matchID string) (int, error)
}

type matchService struct {
	store    repositories.Store
	exporter ExportService
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewMatchService(
	store repositories.Store,
	exporter ExportService,
	m *metrics.Metrics,
	logger *slog.Logger,
	now func() time.Time,
) MatchService {
	if now == nil {
		now = time.Now
	}
	return &matchService{
		store:    store,
		exporter: exporter,
		metrics:  m,
		logger:   logger,
		now:      now,
	}
}

func (s *matchService) ListMatches(ctx context.Context, scope models.BracketScope, filter repositories.MatchFilter) ([]*models.Match, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrValidationFailed, *filter.Status)
	}
	matches, err := s.store.Repos().Matches.ListByScope(ctx, scope, filter)
	if err != nil {
		return nil, storeError("list matches", err)
	}
	brackets.SortMatches(matches)
	return matches, nil
}

func (s *matchService) GetMatch(ctx context.Context, scope models.BracketScope, matchID string) (*models.Match, error) {
	match, err := s.store.Repos().Matches.GetByID(ctx, scope, matchID)
	if err != nil {
		return nil, mapRepositoryError("get match", err)
	}
	return match, nil
}

// transition читает матч, проверяет переход и сохраняет результат apply.
func (s *matchService) transition(
	ctx context.Context,
	scope models.BracketScope,
	matchID string,
	next models.MatchStatus,
	apply func(ctx context.Context, repos repositories.Repositories, match *models.Match) error,
) (*models.Match, error) {
	var (
		updated *models.Match
		from    models.MatchStatus
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		match, err := repos.Matches.GetByID(ctx, scope, matchID)
		if err != nil {
			return err
		}
		if !isValidStatusTransition(match.Status, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidMatchTransition, match.Status, next)
		}
		from = match.Status
		if err := apply(ctx, repos, match); err != nil {
			return err
		}
		match.Status = next
		if err := repos.Matches.Update(ctx, match); err != nil {
			return err
		}
		updated = match
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError("update match", err)
	}

	s.metrics.MatchTransition(string(from), string(next))
	s.logger.InfoContext(ctx, "Match status changed",
		slog.String("bracket", scope.String()),
		slog.String("match_id", matchID),
		slog.String("from", string(from)),
		slog.String("to", string(next)),
	)
	return updated, nil
}

func (s *matchService) OpenMatch(ctx context.Context, scope models.BracketScope, matchID string) (*models.Match, error) {
	return s.transition(ctx, scope, matchID, models.MatchStatusOpen,
		func(_ context.Context, _ repositories.Repositories, match *models.Match) error {
			if !match.HasBothContestants() {
				return ErrMatchIncomplete
			}
			day := dayOf(s.now())
			match.Day = &day
			return nil
		})
}

func (s *matchService) ResolveMatch(ctx context.Context, scope models.BracketScope, matchID, winnerID string) (*models.Match, error) {
	if winnerID == "" {
		return nil, fmt.Errorf("%w: winner_id is required", ErrMissingInformation)
	}

	var propagated bool
	match, err := s.transition(ctx, scope, matchID, models.MatchStatusClosed,
		func(ctx context.Context, repos repositories.Repositories, match *models.Match) error {
			if !match.IsContestant(winnerID) {
				return ErrInvalidWinner
			}
			winner := winnerID
			match.WinnerID = &winner

			if match.IsFinal() {
				return nil
			}
			// Родитель читается до любой записи в транзакции.
			parent, err := repos.Matches.GetByID(ctx, scope, *match.NextMatchID)
			if err != nil {
				return fmt.Errorf("parent match %s: %w", *match.NextMatchID, err)
			}
			if match.NextMatchSlot == nil {
				return fmt.Errorf("%w: match %s has no parent slot", ErrInvalidState, match.ID)
			}
			parent.FillSlot(*match.NextMatchSlot, winnerID, match.ContestantTitle(winnerID))
			if err := repos.Matches.Update(ctx, parent); err != nil {
				return err
			}
			propagated = true
			return nil
		})
	if err != nil {
		return nil, err
	}

	if propagated {
		s.logger.InfoContext(ctx, "Winner propagated",
			slog.String("bracket", scope.String()),
			slog.String("match_id", match.ID),
			slog.String("next_match_id", derefString(match.NextMatchID)),
			slog.String("winner_id", winnerID),
		)
	}
	if match.IsFinal() {
		s.exportFinal(ctx, scope)
	}
	return match, nil
}

func (s *matchService) UnopenMatch(ctx context.Context, scope models.BracketScope, matchID string) (*models.Match, error) {
	return s.transition(ctx, scope, matchID, models.MatchStatusLocked,
		func(_ context.Context, _ repositories.Repositories, match *models.Match) error {
			match.Day = nil
			return nil
		})
}

func (s *matchService) ClearVotes(ctx context.Context, scope models.BracketScope, matchID string) (int, error) {
	var removed int
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		if _, err := repos.Matches.GetByID(ctx, scope, matchID); err != nil {
			return err
		}
		var err error
		removed, err = repos.Votes.DeleteByMatch(ctx, scope, matchID)
		return err
	})
	if err != nil {
		return 0, mapRepositoryError("clear votes", err)
	}
	s.metrics.VoteOperation("clear", "ok")
	s.logger.InfoContext(ctx, "Match votes cleared",
		slog.String("bracket", scope.String()),
		slog.String("match_id", matchID),
		slog.Int("removed", removed),
	)
	return removed, nil
}

// exportFinal выгружает итог сетки. Ошибка выгрузки не отменяет решение матча.
func (s *matchService) exportFinal(ctx context.Context, scope models.BracketScope) {
	if s.exporter == nil {
		return
	}
	res, err := s.exporter.Export(ctx, scope)
	if err != nil {
		if !isExportDisabled(err) {
			s.logger.WarnContext(ctx, "Failed to export finished bracket",
				slog.String("bracket", scope.String()),
				slog.Any("error", err),
			)
		}
		return
	}
	s.logger.InfoContext(ctx, "Finished bracket exported",
		slog.String("bracket", scope.String()),
		slog.String("key", res.Key),
	)
}
