package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/Dosada05/song-bracket/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	votesUniqueConstraint   = "votes_scope_match_class_key"
	matchesUniqueConstraint = "matches_scope_id_key"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

func affectedRows(result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(n), nil
}

// scopeEq - фильтр по сетке; legacy-сетка хранится как NULL.
func scopeEq(scope models.BracketScope) sq.Eq {
	if scope.IsLegacy() {
		return sq.Eq{"bracket_id": nil}
	}
	return sq.Eq{"bracket_id": scope.BracketID}
}

func nullableBracketID(bracketID string) interface{} {
	if bracketID == "" {
		return nil
	}
	return bracketID
}

func mapUniqueViolation(err error, constraint string, target error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint {
		return target
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
