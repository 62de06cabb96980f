package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
	"github.com/google/uuid"
)

type ClassInput struct {
	Name string `json:"name"`
}

// ClassService управляет классами-избирателями. Классы общие для всех сеток.
type ClassService interface {
	AddClass(ctx context.Context, input ClassInput) (*models.VoterGroup, error)
	ListClasses(ctx context.Context, includeRetired bool) ([]*models.VoterGroup, error)
	RenameClass(ctx context.Context, classID string, input ClassInput) (*models.VoterGroup, error)
	RetireClass(ctx context.Context, classID string) (*models.VoterGroup, error)
	RestoreClass(ctx context.Context, classID string) (*models.VoterGroup, error)
	MoveClass(ctx context.Context, classID string, direction Direction) ([]*models.VoterGroup, error)
}

type classService struct {
	store  repositories.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewClassService(store repositories.Store, logger *slog.Logger, now func() time.Time) ClassService {
	if now == nil {
		now = time.Now
	}
	return &classService{store: store, logger: logger, now: now}
}

func (s *classService) AddClass(ctx context.Context, input ClassInput) (*models.VoterGroup, error) {
	name := trimmed(input.Name)
	if name == "" {
		return nil, ErrClassNameRequired
	}

	class := &models.VoterGroup{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    models.EntityStatusActive,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		maxOrder, err := repos.Classes.MaxOrder(ctx)
		if err != nil {
			return err
		}
		class.Order = maxOrder + 1
		return repos.Classes.Create(ctx, class)
	})
	if err != nil {
		return nil, mapRepositoryError("add class", err)
	}

	s.logger.InfoContext(ctx, "Class added", slog.String("class_id", class.ID), slog.String("name", class.Name))
	return class, nil
}

func (s *classService) ListClasses(ctx context.Context, includeRetired bool) ([]*models.VoterGroup, error) {
	classes, err := s.store.Repos().Classes.List(ctx, includeRetired)
	if err != nil {
		return nil, storeError("list classes", err)
	}
	return classes, nil
}

func (s *classService) modify(ctx context.Context, classID string, fn func(class *models.VoterGroup) error) (*models.VoterGroup, error) {
	var class *models.VoterGroup
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		current, err := repos.Classes.GetByID(ctx, classID)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		if err := repos.Classes.Update(ctx, current); err != nil {
			return err
		}
		class = current
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError("update class", err)
	}
	return class, nil
}

func (s *classService) RenameClass(ctx context.Context, classID string, input ClassInput) (*models.VoterGroup, error) {
	name := trimmed(input.Name)
	if name == "" {
		return nil, ErrClassNameRequired
	}
	return s.modify(ctx, classID, func(class *models.VoterGroup) error {
		class.Name = name
		return nil
	})
}

func (s *classService) RetireClass(ctx context.Context, classID string) (*models.VoterGroup, error) {
	return s.modify(ctx, classID, func(class *models.VoterGroup) error {
		class.Status = models.EntityStatusRetired
		return nil
	})
}

func (s *classService) RestoreClass(ctx context.Context, classID string) (*models.VoterGroup, error) {
	return s.modify(ctx, classID, func(class *models.VoterGroup) error {
		class.Status = models.EntityStatusActive
		return nil
	})
}

func (s *classService) MoveClass(ctx context.Context, classID string, direction Direction) ([]*models.VoterGroup, error) {
	if !direction.Valid() {
		return nil, ErrInvalidDirection
	}

	var ordered []*models.VoterGroup
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		if _, err := repos.Classes.GetByID(ctx, classID); err != nil {
			return err
		}
		classes, err := repos.Classes.List(ctx, false)
		if err != nil {
			return err
		}
		ordered, err = swapAndRenumber(classes, classID, direction,
			func(c *models.VoterGroup) string { return c.ID },
			func(c *models.VoterGroup) int { return c.Order },
			func(c *models.VoterGroup, order int) { c.Order = order },
			func(c *models.VoterGroup) error { return repos.Classes.Update(ctx, c) },
		)
		return err
	})
	if err != nil {
		return nil, mapRepositoryError("move class", err)
	}
	return ordered, nil
}
