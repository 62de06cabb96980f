package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/models"
)

type voteFixture struct {
	env   *testEnv
	scope models.BracketScope
	songs []*models.Song
	class *models.VoterGroup
}

// newVoteFixture: сетка на 4 песни с открытым r1-m1 и одним классом.
func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	env := newTestEnv(t)
	scope := models.LegacyScope()
	songs := env.addSongs(t, scope, 4)
	class := env.addClass(t, "9A")
	env.generate(t, scope, 4)
	_, err := env.matches.OpenMatch(context.Background(), scope, "r1-m1")
	require.NoError(t, err)
	return &voteFixture{env: env, scope: scope, songs: songs, class: class}
}

func (f *voteFixture) vote(matchID, songID string) (*models.Vote, error) {
	return f.env.votes.SubmitVote(context.Background(), f.scope, VoteInput{
		MatchID:    matchID,
		ClassID:    f.class.ID,
		VotedForID: songID,
	})
}

func TestSubmitVote_TallyAndRetract(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	s1, s2 := f.songs[0].ID, f.songs[1].ID

	vote, err := f.vote("r1-m1", s1)
	require.NoError(t, err)
	assert.NotEmpty(t, vote.ID)
	assert.Equal(t, testNow, vote.Timestamp)

	tally, err := f.env.votes.Tally(ctx, f.scope, "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{s1: 1, s2: 0}, tally)

	removed, err := f.env.votes.RetractVote(ctx, f.scope, "r1-m1", f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	tally, err = f.env.votes.Tally(ctx, f.scope, "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{s1: 0, s2: 0}, tally)
}

func TestSubmitVote_DuplicateRejected(t *testing.T) {
	f := newVoteFixture(t)
	s1, s2 := f.songs[0].ID, f.songs[1].ID

	_, err := f.vote("r1-m1", s1)
	require.NoError(t, err)

	_, err = f.vote("r1-m1", s2)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	tally, err := f.env.votes.Tally(context.Background(), f.scope, "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{s1: 1, s2: 0}, tally)
}

func TestSubmitVote_Rejections(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	s1, s3 := f.songs[0].ID, f.songs[2].ID

	retired := f.env.addClass(t, "11B")
	_, err := f.env.classes.RetireClass(ctx, retired.ID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input VoteInput
		want  error
	}{
		{"missing match", VoteInput{ClassID: f.class.ID, VotedForID: s1}, ErrMissingInformation},
		{"missing class", VoteInput{MatchID: "r1-m1", VotedForID: s1}, ErrMissingInformation},
		{"missing choice", VoteInput{MatchID: "r1-m1", ClassID: f.class.ID, VotedForID: "  "}, ErrMissingInformation},
		{"unknown class", VoteInput{MatchID: "r1-m1", ClassID: "nope", VotedForID: s1}, ErrClassNotFound},
		{"retired class", VoteInput{MatchID: "r1-m1", ClassID: retired.ID, VotedForID: s1}, ErrClassNotFound},
		{"unknown match", VoteInput{MatchID: "r7-m1", ClassID: f.class.ID, VotedForID: s1}, ErrMatchNotFound},
		{"locked match", VoteInput{MatchID: "r1-m2", ClassID: f.class.ID, VotedForID: s3}, ErrMatchNotOpen},
		{"not a contestant", VoteInput{MatchID: "r1-m1", ClassID: f.class.ID, VotedForID: s3}, ErrInvalidContestant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.votes.SubmitVote(ctx, f.scope, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	votes, err := f.env.votes.ListVotes(ctx, f.scope, "r1-m1")
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestSubmitVote_ClosedMatch(t *testing.T) {
	f := newVoteFixture(t)
	_, err := f.env.matches.ResolveMatch(context.Background(), f.scope, "r1-m1", f.songs[0].ID)
	require.NoError(t, err)

	_, err = f.vote("r1-m1", f.songs[0].ID)
	assert.ErrorIs(t, err, ErrMatchNotOpen)
}

func TestRetractVote_Idempotent(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	removed, err := f.env.votes.RetractVote(ctx, f.scope, "r1-m1", f.class.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = f.env.votes.RetractVote(ctx, f.scope, "r1-m2", f.class.ID)
	require.NoError(t, err, "locked match")
	assert.Zero(t, removed)

	_, err = f.env.votes.RetractVote(ctx, f.scope, "r9-m9", f.class.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = f.env.votes.RetractVote(ctx, f.scope, "", f.class.ID)
	assert.ErrorIs(t, err, ErrMissingInformation)
}

func TestRetractVote_AfterUnopen(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.vote("r1-m1", f.songs[0].ID)
	require.NoError(t, err)
	_, err = f.env.matches.UnopenMatch(ctx, f.scope, "r1-m1")
	require.NoError(t, err)

	// Сброс оставляет голос, снять его можно и у закрытого для голосования матча.
	removed, err := f.env.votes.RetractVote(ctx, f.scope, "r1-m1", f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	votes, err := f.env.votes.ListVotes(ctx, f.scope, "r1-m1")
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestRetractVote_AllowsRevote(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	s1, s2 := f.songs[0].ID, f.songs[1].ID

	_, err := f.vote("r1-m1", s1)
	require.NoError(t, err)
	_, err = f.env.votes.RetractVote(ctx, f.scope, "r1-m1", f.class.ID)
	require.NoError(t, err)
	_, err = f.vote("r1-m1", s2)
	require.NoError(t, err)

	tally, err := f.env.votes.Tally(ctx, f.scope, "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{s1: 0, s2: 1}, tally)
}

func TestAdminOverrideVote(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	s1, s2 := f.songs[0].ID, f.songs[1].ID

	vote, err := f.vote("r1-m1", s1)
	require.NoError(t, err)

	// Переопределение не требует открытого матча.
	_, err = f.env.matches.UnopenMatch(ctx, f.scope, "r1-m1")
	require.NoError(t, err)

	updated, err := f.env.votes.AdminOverrideVote(ctx, f.scope, vote.ID, s2)
	require.NoError(t, err)
	assert.Equal(t, s2, updated.VotedForID)

	tally, err := f.env.votes.Tally(ctx, f.scope, "r1-m1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{s1: 0, s2: 1}, tally)

	_, err = f.env.votes.AdminOverrideVote(ctx, f.scope, vote.ID, f.songs[3].ID)
	assert.ErrorIs(t, err, ErrInvalidContestant)

	_, err = f.env.votes.AdminOverrideVote(ctx, f.scope, "missing", s1)
	assert.ErrorIs(t, err, ErrVoteNotFound)

	_, err = f.env.votes.AdminOverrideVote(ctx, models.ScopeFor("other"), vote.ID, s1)
	assert.ErrorIs(t, err, ErrVoteNotFound)
}
