package brackets

import (
	"testing"

	"github.com/Dosada05/song-bracket/models"
	"github.com/stretchr/testify/assert"
)

func TestParseMatchID(t *testing.T) {
	tests := []struct {
		id    string
		round int
		index int
		ok    bool
	}{
		{"r1-m1", 1, 1, true},
		{"r3-m12", 3, 12, true},
		{"r0-m1", 0, 0, false},
		{"m1", 0, 0, false},
		{"r1m1", 0, 0, false},
		{"r1-mx", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range tests {
		round, index, ok := ParseMatchID(tc.id)
		assert.Equal(t, tc.ok, ok, tc.id)
		assert.Equal(t, tc.round, round, tc.id)
		assert.Equal(t, tc.index, index, tc.id)
	}
}

func TestSortMatches_NumericIndex(t *testing.T) {
	matches := []*models.Match{
		{ID: "r2-m1", Round: 2},
		{ID: "r1-m10", Round: 1},
		{ID: "r1-m2", Round: 1},
		{ID: "r1-m9", Round: 1},
		{ID: "r1-m1", Round: 1},
	}
	SortMatches(matches)

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"r1-m1", "r1-m2", "r1-m9", "r1-m10", "r2-m1"}, ids)
}

func TestGroupByRound(t *testing.T) {
	matches := generate(t, makeSongs(8), 8)
	groups := GroupByRound(matches)

	if assert.Len(t, groups, 3) {
		assert.Equal(t, 1, groups[0].Round)
		assert.Len(t, groups[0].Matches, 4)
		assert.Equal(t, "r1-m1", groups[0].Matches[0].ID)
		assert.Equal(t, "r1-m4", groups[0].Matches[3].ID)
		assert.Equal(t, 3, groups[2].Round)
		assert.Len(t, groups[2].Matches, 1)
	}
}
