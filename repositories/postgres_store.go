package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// SQLExecutor - общий интерфейс для *sqlx.DB и *sqlx.Tx.
type SQLExecutor interface {
	sqlx.ExtContext
}

type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func newPostgresRepositories(exec SQLExecutor) Repositories {
	return Repositories{
		Songs:    NewPostgresSongRepository(exec),
		Classes:  NewPostgresClassRepository(exec),
		Matches:  NewPostgresMatchRepository(exec),
		Votes:    NewPostgresVoteRepository(exec),
		Brackets: NewPostgresBracketRepository(exec),
	}
}

func (s *PostgresStore) Repos() Repositories {
	return newPostgresRepositories(s.db)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (txErr error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(ctx, newPostgresRepositories(tx))
	return txErr
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
