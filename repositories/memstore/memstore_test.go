package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

func strPtr(s string) *string { return &s }

func TestWithinTx_RollbackLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Repos().Matches.CreateMany(ctx, []*models.Match{
		{ID: "r1-m1", Round: 1, Status: models.MatchStatusLocked},
	}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		if _, err := repos.Matches.DeleteByScope(ctx, models.LegacyScope()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	matches, err := store.Repos().Matches.ListByScope(ctx, models.LegacyScope(), repositories.MatchFilter{})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestWithinTx_CommitAndReadYourWrites(t *testing.T) {
	ctx := context.Background()
	store := New()

	err := store.WithinTx(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		if err := repos.Matches.CreateMany(ctx, []*models.Match{{ID: "r1-m1", Round: 1}}); err != nil {
			return err
		}
		_, err := repos.Matches.GetByID(ctx, models.LegacyScope(), "r1-m1")
		return err
	})
	require.NoError(t, err)

	_, err = store.Repos().Matches.GetByID(ctx, models.LegacyScope(), "r1-m1")
	assert.NoError(t, err)
}

func TestMatches_ScopedIDs(t *testing.T) {
	ctx := context.Background()
	store := New()
	repos := store.Repos()

	require.NoError(t, repos.Matches.CreateMany(ctx, []*models.Match{{ID: "r1-m1", Round: 1}}))
	require.NoError(t, repos.Matches.CreateMany(ctx, []*models.Match{{ID: "r1-m1", Round: 1, BracketID: "b-1"}}))

	assert.ErrorIs(t, repos.Matches.CreateMany(ctx, []*models.Match{{ID: "r1-m1", Round: 1}}), repositories.ErrMatchConflict)

	_, err := repos.Matches.GetByID(ctx, models.ScopeFor("b-2"), "r1-m1")
	assert.ErrorIs(t, err, repositories.ErrMatchNotFound)

	n, err := repos.Matches.DeleteByScope(ctx, models.ScopeFor("b-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repos.Matches.GetByID(ctx, models.LegacyScope(), "r1-m1")
	assert.NoError(t, err)
}

func TestMatches_ReturnedCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := New()
	repos := store.Repos()
	require.NoError(t, repos.Matches.CreateMany(ctx, []*models.Match{{ID: "r1-m1", Round: 1, Song1ID: strPtr("s-1")}}))

	m, err := repos.Matches.GetByID(ctx, models.LegacyScope(), "r1-m1")
	require.NoError(t, err)
	*m.Song1ID = "changed"

	again, err := repos.Matches.GetByID(ctx, models.LegacyScope(), "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", *again.Song1ID)
}

func TestVotes_UniquePerMatchAndClass(t *testing.T) {
	ctx := context.Background()
	store := New()
	repos := store.Repos()
	require.NoError(t, repos.Classes.Create(ctx, &models.VoterGroup{ID: "c-1", Name: "5A"}))

	require.NoError(t, repos.Votes.Create(ctx, &models.Vote{MatchID: "r1-m1", ClassID: "c-1", VotedForID: "s-1"}))
	err := repos.Votes.Create(ctx, &models.Vote{MatchID: "r1-m1", ClassID: "c-1", VotedForID: "s-2"})
	assert.ErrorIs(t, err, repositories.ErrVoteConflict)

	err = repos.Votes.Create(ctx, &models.Vote{MatchID: "r1-m1", ClassID: "missing", VotedForID: "s-2"})
	assert.ErrorIs(t, err, repositories.ErrClassNotFound)

	require.NoError(t, repos.Votes.Create(ctx, &models.Vote{BracketID: "b-1", MatchID: "r1-m1", ClassID: "c-1", VotedForID: "s-2"}))
}

func TestBrackets_SetActiveKeepsSingleActive(t *testing.T) {
	ctx := context.Background()
	store := New()
	repos := store.Repos()

	a := &models.Bracket{Name: "Spring", IsActive: true}
	b := &models.Bracket{Name: "Fall"}
	require.NoError(t, repos.Brackets.Create(ctx, a))
	require.NoError(t, repos.Brackets.Create(ctx, b))

	require.NoError(t, repos.Brackets.SetActive(ctx, b.ID))

	active, err := repos.Brackets.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	all, err := repos.Brackets.List(ctx)
	require.NoError(t, err)
	activeCount := 0
	for _, br := range all {
		if br.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	assert.ErrorIs(t, repos.Brackets.SetActive(ctx, "missing"), repositories.ErrBracketNotFound)
}

func TestAssignLegacyToBracket(t *testing.T) {
	ctx := context.Background()
	store := New()
	repos := store.Repos()

	require.NoError(t, repos.Songs.Create(ctx, &models.Song{Title: "A", Artist: "X", Order: 1}))
	require.NoError(t, repos.Songs.Create(ctx, &models.Song{Title: "B", Artist: "X", Order: 1, BracketID: "other"}))
	require.NoError(t, repos.Matches.CreateMany(ctx, []*models.Match{{ID: "r1-m1", Round: 1}}))

	n, err := repos.Songs.AssignLegacyToBracket(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repos.Matches.AssignLegacyToBracket(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	legacy, err := repos.Songs.ListByScope(ctx, models.LegacyScope(), true)
	require.NoError(t, err)
	assert.Empty(t, legacy)

	m, err := repos.Matches.GetByID(ctx, models.ScopeFor("b-1"), "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", m.BracketID)
}
