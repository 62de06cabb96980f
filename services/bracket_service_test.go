package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

func TestGenerateBracket_EightSongs(t *testing.T) {
	env := newTestEnv(t)
	scope := models.LegacyScope()
	songs := env.addSongs(t, scope, 8)

	byID := env.generate(t, scope, 8)
	require.Len(t, byID, 7)

	final := byID["r3-m1"]
	require.NotNil(t, final)
	assert.True(t, final.IsFinal())

	wantParents := map[string]struct {
		parent string
		slot   models.MatchSlot
	}{
		"r2-m1": {"r3-m1", models.SlotSong1},
		"r2-m2": {"r3-m1", models.SlotSong2},
		"r1-m1": {"r2-m1", models.SlotSong1},
		"r1-m2": {"r2-m1", models.SlotSong2},
		"r1-m3": {"r2-m2", models.SlotSong1},
		"r1-m4": {"r2-m2", models.SlotSong2},
	}
	for id, want := range wantParents {
		m := byID[id]
		require.NotNil(t, m, id)
		require.NotNil(t, m.NextMatchID, id)
		assert.Equal(t, want.parent, *m.NextMatchID, id)
		require.NotNil(t, m.NextMatchSlot, id)
		assert.Equal(t, want.slot, *m.NextMatchSlot, id)
		assert.Equal(t, models.MatchStatusLocked, m.Status, id)
	}

	for i := 0; i < 4; i++ {
		m := byID[[]string{"r1-m1", "r1-m2", "r1-m3", "r1-m4"}[i]]
		assert.Equal(t, songs[i*2].ID, *m.Song1ID)
		assert.Equal(t, songs[i*2+1].ID, *m.Song2ID)
		assert.Equal(t, songs[i*2].Title, m.Song1Title)
	}
	assert.Nil(t, byID["r2-m1"].Song1ID)
	assert.Equal(t, models.TBDTitle, byID["r2-m1"].Song1Title)
}

func TestGenerateBracket_ReplacesPreviousMatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := models.LegacyScope()
	env.addSongs(t, scope, 8)

	env.generate(t, scope, 8)
	res, err := env.bracket.GenerateBracket(ctx, scope, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, res.RemovedMatches)
	assert.Len(t, res.Matches, 3)

	all, err := env.matches.ListMatches(ctx, scope, repositories.MatchFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "r1-m1", all[0].ID)
	assert.Equal(t, "r2-m1", all[len(all)-1].ID)
}

func TestGenerateBracket_NotEnoughSongsLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := models.LegacyScope()
	env.addSongs(t, scope, 4)
	env.generate(t, scope, 4)

	_, err := env.bracket.GenerateBracket(ctx, scope, 8)
	require.ErrorIs(t, err, ErrNotEnoughSongs)
	assert.ErrorIs(t, err, ErrValidationFailed)

	all, err := env.matches.ListMatches(ctx, scope, repositories.MatchFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGenerateBracket_InvalidSize(t *testing.T) {
	env := newTestEnv(t)
	env.addSongs(t, models.LegacyScope(), 8)

	for _, size := range []int{0, 1, 3, 6, -4} {
		_, err := env.bracket.GenerateBracket(context.Background(), models.LegacyScope(), size)
		assert.ErrorIs(t, err, ErrInvalidBracketSize, "size %d", size)
	}
}

func TestGenerateBracket_SkipsRetiredSongs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := models.LegacyScope()
	songs := env.addSongs(t, scope, 5)

	_, err := env.songs.RetireSong(ctx, songs[0].ID)
	require.NoError(t, err)

	byID := env.generate(t, scope, 4)
	assert.Equal(t, songs[1].ID, *byID["r1-m1"].Song1ID)
	assert.Equal(t, songs[4].ID, *byID["r1-m2"].Song2ID)

	_, err = env.songs.RetireSong(ctx, songs[1].ID)
	require.NoError(t, err)
	_, err = env.bracket.GenerateBracket(ctx, scope, 4)
	assert.ErrorIs(t, err, ErrNotEnoughSongs)
}

func TestGenerateBracket_ClearsVotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := models.LegacyScope()
	songs := env.addSongs(t, scope, 2)
	class := env.addClass(t, "7A")

	env.generate(t, scope, 2)
	_, err := env.matches.OpenMatch(ctx, scope, "r1-m1")
	require.NoError(t, err)
	_, err = env.votes.SubmitVote(ctx, scope, VoteInput{MatchID: "r1-m1", ClassID: class.ID, VotedForID: songs[0].ID})
	require.NoError(t, err)

	res, err := env.bracket.GenerateBracket(ctx, scope, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemovedVotes)

	tally, err := env.votes.Tally(ctx, scope, "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{songs[0].ID: 0, songs[1].ID: 0}, tally)
}

func TestGenerateBracket_ScopesAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bracket, err := env.admin.CreateBracket(ctx, BracketInput{Name: "Spring"})
	require.NoError(t, err)
	named := bracket.Scope()

	env.addSongs(t, models.LegacyScope(), 2)
	env.addSongs(t, named, 4)
	env.generate(t, models.LegacyScope(), 2)
	env.generate(t, named, 4)

	legacy, err := env.matches.ListMatches(ctx, models.LegacyScope(), repositories.MatchFilter{})
	require.NoError(t, err)
	assert.Len(t, legacy, 1)

	spring, err := env.matches.ListMatches(ctx, named, repositories.MatchFilter{})
	require.NoError(t, err)
	assert.Len(t, spring, 3)
	for _, m := range spring {
		assert.Equal(t, bracket.ID, m.BracketID)
	}
}

func TestDeleteBracket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := models.LegacyScope()
	songs := env.addSongs(t, scope, 4)
	class := env.addClass(t, "8B")
	env.generate(t, scope, 4)

	_, err := env.matches.OpenMatch(ctx, scope, "r1-m2")
	require.NoError(t, err)
	_, err = env.votes.SubmitVote(ctx, scope, VoteInput{MatchID: "r1-m2", ClassID: class.ID, VotedForID: songs[3].ID})
	require.NoError(t, err)

	res, err := env.bracket.DeleteBracket(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, &DeletionResult{RemovedMatches: 3, RemovedVotes: 1}, res)

	all, err := env.matches.ListMatches(ctx, scope, repositories.MatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	remaining, err := env.songs.ListSongs(ctx, scope, true)
	require.NoError(t, err)
	assert.Len(t, remaining, 4)
}
