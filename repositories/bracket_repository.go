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

var bracketColumns = []string{"id", "name", "is_active", "created_at"}

type postgresBracketRepository struct {
	exec SQLExecutor
}

func NewPostgresBracketRepository(exec SQLExecutor) BracketRepository {
	return &postgresBracketRepository{exec: exec}
}

func (r *postgresBracketRepository) Create(ctx context.Context, bracket *models.Bracket) error {
	if bracket.ID == "" {
		bracket.ID = uuid.NewString()
	}
	if bracket.CreatedAt.IsZero() {
		bracket.CreatedAt = time.Now().UTC()
	}

	query, args, err := psql.Insert("brackets").
		Columns(bracketColumns...).
		Values(bracket.ID, bracket.Name, bracket.IsActive, bracket.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build bracket insert: %w", err)
	}

	if _, err := r.exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert bracket %q: %w", bracket.Name, err)
	}
	return nil
}

func (r *postgresBracketRepository) get(ctx context.Context, where sq.Sqlizer) (*models.Bracket, error) {
	query, args, err := psql.Select(bracketColumns...).From("brackets").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build bracket query: %w", err)
	}

	var bracket models.Bracket
	if err := sqlx.GetContext(ctx, r.exec, &bracket, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to get bracket: %w", err)
	}
	return &bracket, nil
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id string) (*models.Bracket, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *postgresBracketRepository) GetActive(ctx context.Context) (*models.Bracket, error) {
	return r.get(ctx, sq.Eq{"is_active": true})
}

func (r *postgresBracketRepository) List(ctx context.Context) ([]*models.Bracket, error) {
	query, args, err := psql.Select(bracketColumns...).From("brackets").OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build brackets query: %w", err)
	}

	brackets := make([]*models.Bracket, 0)
	if err := sqlx.SelectContext(ctx, r.exec, &brackets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list brackets: %w", err)
	}
	return brackets, nil
}

// SetActive выполняет два UPDATE: уникальный индекс по is_active проверяется построчно.
func (r *postgresBracketRepository) SetActive(ctx context.Context, id string) error {
	clearQuery, clearArgs, err := psql.Update("brackets").
		Set("is_active", false).
		Where(sq.Eq{"is_active": true}).
		Where(sq.NotEq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build bracket deactivate: %w", err)
	}
	if _, err := r.exec.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("failed to deactivate brackets: %w", err)
	}

	setQuery, setArgs, err := psql.Update("brackets").Set("is_active", true).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build bracket activate: %w", err)
	}
	result, err := r.exec.ExecContext(ctx, setQuery, setArgs...)
	if err != nil {
		return fmt.Errorf("failed to activate bracket %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

func (r *postgresBracketRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("brackets").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build bracket count: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, r.exec, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count brackets: %w", err)
	}
	return count, nil
}
