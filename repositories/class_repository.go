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

var classColumns = []string{"id", "name", "sort_order", "deleted", "created_at"}

type classRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	SortOrder int       `db:"sort_order"`
	Deleted   bool      `db:"deleted"`
	CreatedAt time.Time `db:"created_at"`
}

func (row classRow) toModel() *models.VoterGroup {
	return &models.VoterGroup{
		ID:        row.ID,
		Name:      row.Name,
		Order:     row.SortOrder,
		Status:    models.EntityStatusFromDeleted(row.Deleted),
		CreatedAt: row.CreatedAt,
	}
}

type postgresClassRepository struct {
	exec SQLExecutor
}

func NewPostgresClassRepository(exec SQLExecutor) ClassRepository {
	return &postgresClassRepository{exec: exec}
}

func (r *postgresClassRepository) Create(ctx context.Context, class *models.VoterGroup) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	if class.Status == "" {
		class.Status = models.EntityStatusActive
	}

	query, args, err := psql.Insert("classes").
		Columns("id", "name", "sort_order", "deleted", "created_at").
		Values(class.ID, class.Name, class.Order, class.Status.Deleted(), class.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build class insert: %w", err)
	}

	if _, err := r.exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert class %s: %w", class.ID, err)
	}
	return nil
}

func (r *postgresClassRepository) GetByID(ctx context.Context, id string) (*models.VoterGroup, error) {
	query, args, err := psql.Select(classColumns...).From("classes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build class query: %w", err)
	}

	var row classRow
	if err := sqlx.GetContext(ctx, r.exec, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get class by id %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (r *postgresClassRepository) List(ctx context.Context, includeRetired bool) ([]*models.VoterGroup, error) {
	builder := psql.Select(classColumns...).From("classes")
	if !includeRetired {
		builder = builder.Where(sq.Eq{"deleted": false})
	}
	query, args, err := builder.OrderBy("sort_order ASC", "created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build classes query: %w", err)
	}

	var rows []classRow
	if err := sqlx.SelectContext(ctx, r.exec, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	classes := make([]*models.VoterGroup, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toModel())
	}
	return classes, nil
}

func (r *postgresClassRepository) Update(ctx context.Context, class *models.VoterGroup) error {
	query, args, err := psql.Update("classes").
		SetMap(map[string]interface{}{
			"name":       class.Name,
			"sort_order": class.Order,
			"deleted":    class.Status.Deleted(),
		}).
		Where(sq.Eq{"id": class.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build class update: %w", err)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update class %s: %w", class.ID, err)
	}
	return checkAffectedRows(result, ErrClassNotFound)
}

func (r *postgresClassRepository) MaxOrder(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COALESCE(MAX(sort_order), 0)").From("classes").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build max order query: %w", err)
	}

	var maxOrder int
	if err := sqlx.GetContext(ctx, r.exec, &maxOrder, query, args...); err != nil {
		return 0, fmt.Errorf("failed to get max class order: %w", err)
	}
	return maxOrder, nil
}
