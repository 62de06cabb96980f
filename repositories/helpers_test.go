package repositories

import (
	"errors"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/models"
)

func TestScopeEq(t *testing.T) {
	tests := []struct {
		name      string
		scope     models.BracketScope
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "legacy scope filters on null",
			scope:     models.LegacyScope(),
			wantQuery: "SELECT id FROM matches WHERE bracket_id IS NULL AND id = $1",
			wantArgs:  []interface{}{"r1-m1"},
		},
		{
			name:      "named scope filters on id",
			scope:     models.ScopeFor("b-1"),
			wantQuery: "SELECT id FROM matches WHERE bracket_id = $1 AND id = $2",
			wantArgs:  []interface{}{"b-1", "r1-m1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, args, err := psql.Select("id").From("matches").
				Where(scopeEq(tc.scope)).
				Where(sq.Eq{"id": "r1-m1"}).
				ToSql()
			require.NoError(t, err)
			assert.Equal(t, tc.wantQuery, query)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestNullableBracketID(t *testing.T) {
	assert.Nil(t, nullableBracketID(""))
	assert.Equal(t, "b-1", nullableBracketID("b-1"))
}

func TestMapUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: pqUniqueViolation, Constraint: votesUniqueConstraint}
	assert.ErrorIs(t, mapUniqueViolation(dup, votesUniqueConstraint, ErrVoteConflict), ErrVoteConflict)

	other := &pq.Error{Code: pqUniqueViolation, Constraint: "songs_pkey"}
	assert.Same(t, other, mapUniqueViolation(other, votesUniqueConstraint, ErrVoteConflict))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapUniqueViolation(plain, votesUniqueConstraint, ErrVoteConflict))
}
