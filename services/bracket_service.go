package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/song-bracket/brackets"
	"github.com/Dosada05/song-bracket/metrics"
	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

type BracketService interface {
	// GenerateBracket полностью заменяет матчи и голоса сетки новым деревом.
	GenerateBracket(ctx context.Context, scope models.BracketScope, size int) (*GenerationResult, error)
	DeleteBracket(ctx context.Context, scope models.BracketScope) (*DeletionResult, error)
}

type GenerationResult struct {
	Scope          models.BracketScope `json:"scope"`
	Size           int                 `json:"size"`
	Matches        []*models.Match     `json:"matches"`
	RemovedMatches int                 `json:"removed_matches"`
	RemovedVotes   int                 `json:"removed_votes"`
}

type DeletionResult struct {
	RemovedMatches int `json:"removed_matches"`
	RemovedVotes   int `json:"removed_votes"`
}

type bracketService struct {
	store     repositories.Store
	generator brackets.BracketGenerator
	exporter  ExportService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewBracketService: exporter может быть nil, тогда устаревшие выгрузки не удаляются.
func NewBracketService(
	store repositories.Store,
	generator brackets.BracketGenerator,
	exporter ExportService,
	m *metrics.Metrics,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		store:     store,
		generator: generator,
		exporter:  exporter,
		metrics:   m,
		logger:    logger,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, scope models.BracketScope, size int) (*GenerationResult, error) {
	if err := brackets.ValidateSize(size); err != nil {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBracketSize, size)
	}

	result := &GenerationResult{Scope: scope, Size: size}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		songs, err := repos.Songs.ListByScope(ctx, scope, false)
		if err != nil {
			return storeError("list songs", err)
		}
		seedingOrder(songs)

		matches, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Scope: scope,
			Songs: songs,
			Size:  size,
		})
		if err != nil {
			switch {
			case errors.Is(err, brackets.ErrNotEnoughSongs):
				return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughSongs, size, len(songs))
			case errors.Is(err, brackets.ErrInvalidBracketSize):
				return ErrInvalidBracketSize
			}
			return err
		}

		removedMatches, err := repos.Matches.DeleteByScope(ctx, scope)
		if err != nil {
			return storeError("delete matches", err)
		}
		// Id матчей переиспользуются, поэтому старые голоса удаляются вместе с матчами.
		removedVotes, err := repos.Votes.DeleteByScope(ctx, scope)
		if err != nil {
			return storeError("delete votes", err)
		}
		if err := repos.Matches.CreateMany(ctx, matches); err != nil {
			return storeError("create matches", err)
		}

		result.Matches = matches
		result.RemovedMatches = removedMatches
		result.RemovedVotes = removedVotes
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError("generate bracket", err)
	}

	brackets.SortMatches(result.Matches)
	s.metrics.BracketGenerated(size)
	s.logger.InfoContext(ctx, "Bracket generated",
		slog.String("bracket", scope.String()),
		slog.Int("size", size),
		slog.Int("matches", len(result.Matches)),
		slog.Int("removed_matches", result.RemovedMatches),
		slog.Int("removed_votes", result.RemovedVotes),
	)
	s.removeStaleExport(ctx, scope)
	return result, nil
}

func (s *bracketService) DeleteBracket(ctx context.Context, scope models.BracketScope) (*DeletionResult, error) {
	result := &DeletionResult{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		var err error
		if result.RemovedMatches, err = repos.Matches.DeleteByScope(ctx, scope); err != nil {
			return storeError("delete matches", err)
		}
		if result.RemovedVotes, err = repos.Votes.DeleteByScope(ctx, scope); err != nil {
			return storeError("delete votes", err)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError("delete bracket", err)
	}

	s.logger.InfoContext(ctx, "Bracket deleted",
		slog.String("bracket", scope.String()),
		slog.Int("removed_matches", result.RemovedMatches),
		slog.Int("removed_votes", result.RemovedVotes),
	)
	s.removeStaleExport(ctx, scope)
	return result, nil
}

func (s *bracketService) removeStaleExport(ctx context.Context, scope models.BracketScope) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.Remove(ctx, scope); err != nil && !isExportDisabled(err) {
		s.logger.WarnContext(ctx, "Failed to remove stale bracket export",
			slog.String("bracket", scope.String()),
			slog.Any("error", err),
		)
	}
}
