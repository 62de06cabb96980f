package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/song-bracket/models"
)

var voteColumns = []string{
	"id", "COALESCE(bracket_id, '') AS bracket_id", "match_id", "class_id", "voted_for_id", "created_at",
}

type postgresVoteRepository struct {
	exec SQLExecutor
}

func NewPostgresVoteRepository(exec SQLExecutor) VoteRepository {
	return &postgresVoteRepository{exec: exec}
}

func (r *postgresVoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	if vote.Timestamp.IsZero() {
		vote.Timestamp = time.Now().UTC()
	}

	query, args, err := psql.Insert("votes").
		Columns("id", "bracket_id", "match_id", "class_id", "voted_for_id", "created_at").
		Values(vote.ID, nullableBracketID(vote.BracketID), vote.MatchID, vote.ClassID, vote.VotedForID, vote.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build vote insert: %w", err)
	}

	if _, err := r.exec.ExecContext(ctx, query, args...); err != nil {
		if mapped := mapUniqueViolation(err, votesUniqueConstraint, ErrVoteConflict); mapped != err {
			return mapped
		}
		if isForeignKeyViolation(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to insert vote for match %s: %w", vote.MatchID, err)
	}
	return nil
}

func (r *postgresVoteRepository) GetByID(ctx context.Context, id string) (*models.Vote, error) {
	query, args, err := psql.Select(voteColumns...).From("votes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build vote query: %w", err)
	}

	var vote models.Vote
	if err := sqlx.GetContext(ctx, r.exec, &vote, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to get vote by id %s: %w", id, err)
	}
	return &vote, nil
}

func (r *postgresVoteRepository) list(ctx context.Context, where ...sq.Sqlizer) ([]*models.Vote, error) {
	builder := psql.Select(voteColumns...).From("votes")
	for _, w := range where {
		builder = builder.Where(w)
	}
	query, args, err := builder.OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build votes query: %w", err)
	}

	votes := make([]*models.Vote, 0)
	if err := sqlx.SelectContext(ctx, r.exec, &votes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

func (r *postgresVoteRepository) ListByMatch(ctx context.Context, scope models.BracketScope, matchID string) ([]*models.Vote, error) {
	return r.list(ctx, scopeEq(scope), sq.Eq{"match_id": matchID})
}

func (r *postgresVoteRepository) ListByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) ([]*models.Vote, error) {
	return r.list(ctx, scopeEq(scope), sq.Eq{"match_id": matchID, "class_id": classID})
}

func (r *postgresVoteRepository) ListByScope(ctx context.Context, scope models.BracketScope) ([]*models.Vote, error) {
	return r.list(ctx, scopeEq(scope))
}

func (r *postgresVoteRepository) UpdateVotedFor(ctx context.Context, id, votedForID string) error {
	query, args, err := psql.Update("votes").
		Set("voted_for_id", votedForID).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build vote update: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update vote %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrVoteNotFound)
}

func (r *postgresVoteRepository) delete(ctx context.Context, where ...sq.Sqlizer) (int, error) {
	builder := psql.Delete("votes")
	for _, w := range where {
		builder = builder.Where(w)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build vote delete: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes: %w", err)
	}
	return affectedRows(result)
}

func (r *postgresVoteRepository) DeleteByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) (int, error) {
	return r.delete(ctx, scopeEq(scope), sq.Eq{"match_id": matchID, "class_id": classID})
}

func (r *postgresVoteRepository) DeleteByMatch(ctx context.Context, scope models.BracketScope, matchID string) (int, error) {
	return r.delete(ctx, scopeEq(scope), sq.Eq{"match_id": matchID})
}

func (r *postgresVoteRepository) DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error) {
	return r.delete(ctx, scopeEq(scope))
}

func (r *postgresVoteRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	query, args, err := psql.Update("votes").
		Set("bracket_id", bracketID).
		Where(sq.Eq{"bracket_id": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build vote migration: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to assign legacy votes to bracket %s: %w", bracketID, err)
	}
	return affectedRows(result)
}
