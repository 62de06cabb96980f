package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/song-bracket/brackets"
	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
	"github.com/Dosada05/song-bracket/utils"
)

type MatchView struct {
	*models.Match
	Tally map[string]int `json:"tally"`
}

type RoundView struct {
	Round   int         `json:"round"`
	Matches []MatchView `json:"matches"`
}

type BracketView struct {
	Scope      models.BracketScope `json:"scope"`
	Bracket    *models.Bracket     `json:"bracket,omitempty"`
	Rounds     []RoundView         `json:"rounds"`
	ChampionID *string             `json:"champion_id"`
}

type SongView struct {
	*models.Song
	YouTubeID string `json:"youtube_id,omitempty"`
}

type VotingView struct {
	Scope       models.BracketScope  `json:"scope"`
	OpenMatches []*models.Match      `json:"open_matches"`
	Classes     []*models.VoterGroup `json:"classes"`
	Songs       map[string]SongView  `json:"songs"`
	Votes       []*models.Vote       `json:"votes"`
}

type ViewService interface {
	// BracketView: матчи по раундам в порядке отображения и подсчёт голосов по каждому.
	BracketView(ctx context.Context, scope models.BracketScope) (*BracketView, error)
	// VotingView: открытые матчи, классы, песни с id роликов и уже поданные голоса.
	VotingView(ctx context.Context, scope models.BracketScope) (*VotingView, error)
}

type viewService struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewViewService(store repositories.Store, logger *slog.Logger) ViewService {
	return &viewService{store: store, logger: logger}
}

func (s *viewService) BracketView(ctx context.Context, scope models.BracketScope) (*BracketView, error) {
	repos := s.store.Repos()

	var (
		bracket *models.Bracket
		matches []*models.Match
		votes   []*models.Vote
	)
	g, gCtx := errgroup.WithContext(ctx)
	if !scope.IsLegacy() {
		g.Go(func() error {
			var err error
			bracket, err = repos.Brackets.GetByID(gCtx, scope.BracketID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		matches, err = repos.Matches.ListByScope(gCtx, scope, repositories.MatchFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		votes, err = repos.Votes.ListByScope(gCtx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mapRepositoryError("load bracket view", err)
	}

	votesByMatch := make(map[string][]*models.Vote)
	for _, v := range votes {
		votesByMatch[v.MatchID] = append(votesByMatch[v.MatchID], v)
	}

	view := &BracketView{Scope: scope, Bracket: bracket, Rounds: []RoundView{}}
	for _, group := range brackets.GroupByRound(matches) {
		round := RoundView{Round: group.Round, Matches: make([]MatchView, 0, len(group.Matches))}
		for _, m := range group.Matches {
			round.Matches = append(round.Matches, MatchView{Match: m, Tally: tallyVotes(m, votesByMatch[m.ID])})
			if m.IsFinal() && m.Status == models.MatchStatusClosed {
				view.ChampionID = m.WinnerID
			}
		}
		view.Rounds = append(view.Rounds, round)
	}
	return view, nil
}

func (s *viewService) VotingView(ctx context.Context, scope models.BracketScope) (*VotingView, error) {
	repos := s.store.Repos()
	open := models.MatchStatusOpen

	view := &VotingView{Scope: scope, Songs: make(map[string]SongView)}
	var songs []*models.Song

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.OpenMatches, err = repos.Matches.ListByScope(gCtx, scope, repositories.MatchFilter{Status: &open})
		return err
	})
	g.Go(func() error {
		var err error
		view.Classes, err = repos.Classes.List(gCtx, false)
		return err
	})
	g.Go(func() error {
		var err error
		// Удалённые песни тоже нужны: они могут оставаться участниками матчей.
		songs, err = repos.Songs.ListByScope(gCtx, scope, true)
		return err
	})
	g.Go(func() error {
		var err error
		view.Votes, err = repos.Votes.ListByScope(gCtx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mapRepositoryError("load voting view", err)
	}

	brackets.SortMatches(view.OpenMatches)
	for _, song := range songs {
		view.Songs[song.ID] = SongView{Song: song, YouTubeID: utils.YouTubeVideoID(derefString(song.YouTubeURL))}
	}

	openIDs := make(map[string]bool, len(view.OpenMatches))
	for _, m := range view.OpenMatches {
		openIDs[m.ID] = true
	}
	votes := make([]*models.Vote, 0, len(view.Votes))
	for _, v := range view.Votes {
		if openIDs[v.MatchID] {
			votes = append(votes, v)
		}
	}
	view.Votes = votes
	return view, nil
}
