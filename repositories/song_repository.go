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

var songColumns = []string{
	"id", "COALESCE(bracket_id, '') AS bracket_id", "title", "artist", "youtube_url",
	"seed", "sort_order", "deleted", "created_at",
}

type songRow struct {
	ID         string         `db:"id"`
	BracketID  string         `db:"bracket_id"`
	Title      string         `db:"title"`
	Artist     string         `db:"artist"`
	YouTubeURL sql.NullString `db:"youtube_url"`
	Seed       int            `db:"seed"`
	SortOrder  int            `db:"sort_order"`
	Deleted    bool           `db:"deleted"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (row songRow) toModel() *models.Song {
	song := &models.Song{
		ID:        row.ID,
		BracketID: row.BracketID,
		Title:     row.Title,
		Artist:    row.Artist,
		Seed:      row.Seed,
		Order:     row.SortOrder,
		Status:    models.EntityStatusFromDeleted(row.Deleted),
		CreatedAt: row.CreatedAt,
	}
	if row.YouTubeURL.Valid {
		u := row.YouTubeURL.String
		song.YouTubeURL = &u
	}
	return song
}

type postgresSongRepository struct {
	exec SQLExecutor
}

func NewPostgresSongRepository(exec SQLExecutor) SongRepository {
	return &postgresSongRepository{exec: exec}
}

func (r *postgresSongRepository) Create(ctx context.Context, song *models.Song) error {
	if song.ID == "" {
		song.ID = uuid.NewString()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	if song.Status == "" {
		song.Status = models.EntityStatusActive
	}

	query, args, err := psql.Insert("songs").
		Columns("id", "bracket_id", "title", "artist", "youtube_url", "seed", "sort_order", "deleted", "created_at").
		Values(song.ID, nullableBracketID(song.BracketID), song.Title, song.Artist, nullableString(song.YouTubeURL),
			song.Seed, song.Order, song.Status.Deleted(), song.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build song insert: %w", err)
	}

	if _, err := r.exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert song %s: %w", song.ID, err)
	}
	return nil
}

func (r *postgresSongRepository) GetByID(ctx context.Context, id string) (*models.Song, error) {
	query, args, err := psql.Select(songColumns...).From("songs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build song query: %w", err)
	}

	var row songRow
	if err := sqlx.GetContext(ctx, r.exec, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("failed to get song by id %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (r *postgresSongRepository) ListByScope(ctx context.Context, scope models.BracketScope, includeRetired bool) ([]*models.Song, error) {
	builder := psql.Select(songColumns...).From("songs").Where(scopeEq(scope))
	if !includeRetired {
		builder = builder.Where(sq.Eq{"deleted": false})
	}
	query, args, err := builder.OrderBy("sort_order ASC", "created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build songs query: %w", err)
	}

	var rows []songRow
	if err := sqlx.SelectContext(ctx, r.exec, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list songs for bracket %s: %w", scope, err)
	}

	songs := make([]*models.Song, 0, len(rows))
	for _, row := range rows {
		songs = append(songs, row.toModel())
	}
	return songs, nil
}

func (r *postgresSongRepository) Update(ctx context.Context, song *models.Song) error {
	query, args, err := psql.Update("songs").
		SetMap(map[string]interface{}{
			"title":       song.Title,
			"artist":      song.Artist,
			"youtube_url": nullableString(song.YouTubeURL),
			"seed":        song.Seed,
			"sort_order":  song.Order,
			"deleted":     song.Status.Deleted(),
		}).
		Where(sq.Eq{"id": song.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build song update: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update song %s: %w", song.ID, err)
	}
	return checkAffectedRows(result, ErrSongNotFound)
}

func (r *postgresSongRepository) MaxOrder(ctx context.Context, scope models.BracketScope) (int, error) {
	query, args, err := psql.Select("COALESCE(MAX(sort_order), 0)").From("songs").Where(scopeEq(scope)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build max order query: %w", err)
	}

	var maxOrder int
	if err := sqlx.GetContext(ctx, r.exec, &maxOrder, query, args...); err != nil {
		return 0, fmt.Errorf("failed to get max song order: %w", err)
	}
	return maxOrder, nil
}

func (r *postgresSongRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	query, args, err := psql.Update("songs").
		Set("bracket_id", bracketID).
		Where(sq.Eq{"bracket_id": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build song migration: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to assign legacy songs to bracket %s: %w", bracketID, err)
	}
	return affectedRows(result)
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
