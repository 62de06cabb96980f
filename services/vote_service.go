package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/song-bracket/metrics"
	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

type VoteInput struct {
	MatchID    string `json:"match_id"`
	ClassID    string `json:"class_id"`
	VotedForID string `json:"voted_for_id"`
}

type VoteService interface {
	// SubmitVote принимает один голос класса за открытый матч.
	SubmitVote(ctx context.Context, scope models.BracketScope, input VoteInput) (*models.Vote, error)
	// RetractVote удаляет голос(а) класса за матч. Отсутствие голоса не ошибка.
	RetractVote(ctx context.Context, scope models.BracketScope, matchID, classID string) (int, error)
	// Tally считает голоса за каждого участника, оба участника всегда присутствуют.
	Tally(ctx context.Context, scope models.BracketScope, matchID string) (map[string]int, error)
	// AdminOverrideVote меняет выбор голоса в обход проверок статуса и дубликатов.
	AdminOverrideVote(ctx context.Context, scope models.BracketScope, voteID, newVotedForID string) (*models.Vote, error)
	ListVotes(ctx context.Context, scope models.BracketScope, matchID string) ([]*models.Vote, error)
}

type voteService struct {
	store   repositories.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewVoteService(store repositories.Store, m *metrics.Metrics, logger *slog.Logger, now func() time.Time) VoteService {
	if now == nil {
		now = time.Now
	}
	return &voteService{
		store:   store,
		metrics: m,
		logger:  logger,
		now:     now,
	}
}

func (s *voteService) SubmitVote(ctx context.Context, scope models.BracketScope, input VoteInput) (*models.Vote, error) {
	input.MatchID = trimmed(input.MatchID)
	input.ClassID = trimmed(input.ClassID)
	input.VotedForID = trimmed(input.VotedForID)
	if input.MatchID == "" || input.ClassID == "" || input.VotedForID == "" {
		s.metrics.VoteOperation("submit", "invalid")
		return nil, ErrMissingInformation
	}

	class, err := s.store.Repos().Classes.GetByID(ctx, input.ClassID)
	if err != nil {
		return nil, mapRepositoryError("get class", err)
	}
	if !class.IsActive() {
		return nil, ErrClassNotFound
	}

	vote := &models.Vote{
		BracketID:  scope.BracketID,
		MatchID:    input.MatchID,
		ClassID:    input.ClassID,
		VotedForID: input.VotedForID,
		Timestamp:  s.now().UTC(),
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		match, err := repos.Matches.GetByID(ctx, scope, input.MatchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusOpen {
			return ErrMatchNotOpen
		}
		if !match.IsContestant(input.VotedForID) {
			return ErrInvalidContestant
		}
		existing, err := repos.Votes.ListByMatchAndClass(ctx, scope, input.MatchID, input.ClassID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrAlreadyVoted
		}
		return repos.Votes.Create(ctx, vote)
	})
	if err != nil {
		err = mapRepositoryError("submit vote", err)
		s.metrics.VoteOperation("submit", voteResultLabel(err))
		return nil, err
	}

	s.metrics.VoteOperation("submit", "ok")
	s.logger.InfoContext(ctx, "Vote submitted",
		slog.String("bracket", scope.String()),
		slog.String("match_id", vote.MatchID),
		slog.String("class_id", vote.ClassID),
		slog.String("voted_for_id", vote.VotedForID),
	)
	return vote, nil
}

func (s *voteService) RetractVote(ctx context.Context, scope models.BracketScope, matchID, classID string) (int, error) {
	matchID, classID = trimmed(matchID), trimmed(classID)
	if matchID == "" || classID == "" {
		return 0, ErrMissingInformation
	}

	var removed int
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		// Статус матча не проверяется: после сброса в locked голоса остаются и снимаются здесь.
		if _, err := repos.Matches.GetByID(ctx, scope, matchID); err != nil {
			return err
		}
		var err error
		removed, err = repos.Votes.DeleteByMatchAndClass(ctx, scope, matchID, classID)
		return err
	})
	if err != nil {
		err = mapRepositoryError("retract vote", err)
		s.metrics.VoteOperation("retract", voteResultLabel(err))
		return 0, err
	}

	s.metrics.VoteOperation("retract", "ok")
	s.logger.InfoContext(ctx, "Vote retracted",
		slog.String("bracket", scope.String()),
		slog.String("match_id", matchID),
		slog.String("class_id", classID),
		slog.Int("removed", removed),
	)
	return removed, nil
}

func (s *voteService) Tally(ctx context.Context, scope models.BracketScope, matchID string) (map[string]int, error) {
	repos := s.store.Repos()
	match, err := repos.Matches.GetByID(ctx, scope, matchID)
	if err != nil {
		return nil, mapRepositoryError("get match", err)
	}
	votes, err := repos.Votes.ListByMatch(ctx, scope, matchID)
	if err != nil {
		return nil, storeError("list votes", err)
	}
	return tallyVotes(match, votes), nil
}

func (s *voteService) AdminOverrideVote(ctx context.Context, scope models.BracketScope, voteID, newVotedForID string) (*models.Vote, error) {
	voteID, newVotedForID = trimmed(voteID), trimmed(newVotedForID)
	if voteID == "" || newVotedForID == "" {
		return nil, ErrMissingInformation
	}

	var vote *models.Vote
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		v, err := repos.Votes.GetByID(ctx, voteID)
		if err != nil {
			return err
		}
		if v.BracketID != scope.BracketID {
			return ErrVoteNotFound
		}
		match, err := repos.Matches.GetByID(ctx, scope, v.MatchID)
		if err != nil {
			return err
		}
		if !match.IsContestant(newVotedForID) {
			return ErrInvalidContestant
		}
		if err := repos.Votes.UpdateVotedFor(ctx, v.ID, newVotedForID); err != nil {
			return err
		}
		v.VotedForID = newVotedForID
		vote = v
		return nil
	})
	if err != nil {
		err = mapRepositoryError("override vote", err)
		s.metrics.VoteOperation("override", voteResultLabel(err))
		return nil, err
	}

	s.metrics.VoteOperation("override", "ok")
	s.logger.InfoContext(ctx, "Vote overridden by admin",
		slog.String("bracket", scope.String()),
		slog.String("vote_id", vote.ID),
		slog.String("match_id", vote.MatchID),
		slog.String("voted_for_id", newVotedForID),
	)
	return vote, nil
}

func (s *voteService) ListVotes(ctx context.Context, scope models.BracketScope, matchID string) ([]*models.Vote, error) {
	repos := s.store.Repos()
	if _, err := repos.Matches.GetByID(ctx, scope, matchID); err != nil {
		return nil, mapRepositoryError("get match", err)
	}
	votes, err := repos.Votes.ListByMatch(ctx, scope, matchID)
	if err != nil {
		return nil, storeError("list votes", err)
	}
	return votes, nil
}

// tallyVotes считает все голоса матча. Текущие участники присутствуют всегда, даже с нулём.
func tallyVotes(match *models.Match, votes []*models.Vote) map[string]int {
	tally := make(map[string]int, 2)
	for _, id := range match.Contestants() {
		tally[id] = 0
	}
	for _, v := range votes {
		if v.MatchID != match.ID {
			continue
		}
		tally[v.VotedForID]++
	}
	return tally
}

func voteResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, ErrMatchNotOpen):
		return "not_open"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidationFailed):
		return "invalid"
	}
	return "error"
}
