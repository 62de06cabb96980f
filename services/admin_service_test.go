package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/models"
)

func TestResolveScope_LegacyWhenNoBrackets(t *testing.T) {
	env := newTestEnv(t)
	scope, err := env.admin.ResolveScope(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, scope.IsLegacy())
}

func TestCreateBracket_FirstBecomesActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.admin.CreateBracket(ctx, BracketInput{Name: "  Autumn  "})
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Equal(t, "Autumn", first.Name)

	second, err := env.admin.CreateBracket(ctx, BracketInput{Name: "Winter"})
	require.NoError(t, err)
	assert.False(t, second.IsActive)

	scope, err := env.admin.ResolveScope(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, scope.BracketID)

	scope, err = env.admin.ResolveScope(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, scope.BracketID)

	_, err = env.admin.ResolveScope(ctx, "unknown")
	assert.ErrorIs(t, err, ErrBracketNotFound)

	_, err = env.admin.CreateBracket(ctx, BracketInput{Name: " "})
	assert.ErrorIs(t, err, ErrBracketNameRequired)
}

func TestActivateBracket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.admin.CreateBracket(ctx, BracketInput{Name: "One"})
	require.NoError(t, err)
	second, err := env.admin.CreateBracket(ctx, BracketInput{Name: "Two"})
	require.NoError(t, err)

	activated, err := env.admin.ActivateBracket(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	list, err := env.admin.ListBrackets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	active := 0
	for _, b := range list {
		if b.IsActive {
			active++
			assert.Equal(t, second.ID, b.ID)
		}
	}
	assert.Equal(t, 1, active)

	scope, err := env.admin.ResolveScope(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, scope.BracketID)
	assert.NotEqual(t, first.ID, scope.BracketID)

	_, err = env.admin.ActivateBracket(ctx, "missing")
	assert.ErrorIs(t, err, ErrBracketNotFound)
}

func TestGetBracket_LegacyIsNil(t *testing.T) {
	env := newTestEnv(t)
	bracket, err := env.admin.GetBracket(context.Background(), models.LegacyScope())
	require.NoError(t, err)
	assert.Nil(t, bracket)
}

func TestMigrateLegacy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	legacy := models.LegacyScope()
	songs := env.addSongs(t, legacy, 4)
	class := env.addClass(t, "10A")
	env.generate(t, legacy, 4)

	_, err := env.matches.OpenMatch(ctx, legacy, "r1-m1")
	require.NoError(t, err)
	_, err = env.votes.SubmitVote(ctx, legacy, VoteInput{MatchID: "r1-m1", ClassID: class.ID, VotedForID: songs[1].ID})
	require.NoError(t, err)

	res, err := env.admin.MigrateLegacy(ctx, BracketInput{Name: "Archive 2024"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Songs)
	assert.Equal(t, 3, res.Matches)
	assert.Equal(t, 1, res.Votes)
	assert.True(t, res.Bracket.IsActive)

	scope, err := env.admin.ResolveScope(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, res.Bracket.ID, scope.BracketID)

	migrated, err := env.songs.ListSongs(ctx, scope, true)
	require.NoError(t, err)
	assert.Len(t, migrated, 4)
	left, err := env.songs.ListSongs(ctx, legacy, true)
	require.NoError(t, err)
	assert.Empty(t, left)

	tally, err := env.votes.Tally(ctx, scope, "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{songs[0].ID: 0, songs[1].ID: 1}, tally)

	_, err = env.matches.GetMatch(ctx, legacy, "r1-m1")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMigrateLegacy_DeactivatesPreviousBracket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	existing, err := env.admin.CreateBracket(ctx, BracketInput{Name: "Current"})
	require.NoError(t, err)
	require.True(t, existing.IsActive)

	res, err := env.admin.MigrateLegacy(ctx, BracketInput{Name: "Old"})
	require.NoError(t, err)
	assert.Zero(t, res.Songs)

	list, err := env.admin.ListBrackets(ctx)
	require.NoError(t, err)
	for _, b := range list {
		assert.Equal(t, b.ID == res.Bracket.ID, b.IsActive, b.Name)
	}
}
