package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/song-bracket/models"
)

var matchColumns = []string{
	"id", "COALESCE(bracket_id, '') AS bracket_id", "round",
	"song1_id", "song1_title", "song2_id", "song2_title",
	"winner_id", "next_match_id", "next_match_slot", "status", "day",
}

type postgresMatchRepository struct {
	exec SQLExecutor
}

func NewPostgresMatchRepository(exec SQLExecutor) MatchRepository {
	return &postgresMatchRepository{exec: exec}
}

func (r *postgresMatchRepository) CreateMany(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	builder := psql.Insert("matches").Columns(
		"id", "bracket_id", "round", "song1_id", "song1_title", "song2_id", "song2_title",
		"winner_id", "next_match_id", "next_match_slot", "status", "day",
	)
	for _, m := range matches {
		builder = builder.Values(
			m.ID, nullableBracketID(m.BracketID), m.Round,
			nullableString(m.Song1ID), m.Song1Title, nullableString(m.Song2ID), m.Song2Title,
			nullableString(m.WinnerID), nullableString(m.NextMatchID), nullableSlot(m.NextMatchSlot),
			string(m.Status), nullableString(m.Day),
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build match insert: %w", err)
	}

	if _, err := r.exec.ExecContext(ctx, query, args...); err != nil {
		if mapped := mapUniqueViolation(err, matchesUniqueConstraint, ErrMatchConflict); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert %d matches: %w", len(matches), err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, scope models.BracketScope, id string) (*models.Match, error) {
	builder := psql.Select(matchColumns...).
		From("matches").
		Where(scopeEq(scope)).
		Where(sq.Eq{"id": id})
	// В транзакции строка блокируется до коммита: соседние матчи пишут в одного родителя.
	if _, inTx := r.exec.(*sqlx.Tx); inTx {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build match query: %w", err)
	}

	var match models.Match
	if err := sqlx.GetContext(ctx, r.exec, &match, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s in bracket %s: %w", id, scope, err)
	}
	return &match, nil
}

func (r *postgresMatchRepository) ListByScope(ctx context.Context, scope models.BracketScope, filter MatchFilter) ([]*models.Match, error) {
	builder := psql.Select(matchColumns...).From("matches").Where(scopeEq(scope))
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Round != nil {
		builder = builder.Where(sq.Eq{"round": *filter.Round})
	}

	query, args, err := builder.OrderBy("round ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build matches query: %w", err)
	}

	matches := make([]*models.Match, 0)
	if err := sqlx.SelectContext(ctx, r.exec, &matches, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list matches for bracket %s: %w", scope, err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query, args, err := psql.Update("matches").
		SetMap(map[string]interface{}{
			"song1_id":        nullableString(match.Song1ID),
			"song1_title":     match.Song1Title,
			"song2_id":        nullableString(match.Song2ID),
			"song2_title":     match.Song2Title,
			"winner_id":       nullableString(match.WinnerID),
			"next_match_id":   nullableString(match.NextMatchID),
			"next_match_slot": nullableSlot(match.NextMatchSlot),
			"status":          string(match.Status),
			"day":             nullableString(match.Day),
		}).
		Where(scopeEq(match.Scope())).
		Where(sq.Eq{"id": match.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build match update: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error) {
	query, args, err := psql.Delete("matches").Where(scopeEq(scope)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build match delete: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches for bracket %s: %w", scope, err)
	}
	return affectedRows(result)
}

func (r *postgresMatchRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	query, args, err := psql.Update("matches").
		Set("bracket_id", bracketID).
		Where(sq.Eq{"bracket_id": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build match migration: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to assign legacy matches to bracket %s: %w", bracketID, err)
	}
	return affectedRows(result)
}

func nullableSlot(slot *models.MatchSlot) interface{} {
	if slot == nil {
		return nil
	}
	return string(*slot)
}
