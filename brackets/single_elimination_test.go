package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/Dosada05/song-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSongs(n int) []*models.Song {
	songs := make([]*models.Song, n)
	for i := range songs {
		songs[i] = &models.Song{
			ID:    fmt.Sprintf("S%d", i+1),
			Title: fmt.Sprintf("Song %d", i+1),
			Order: i + 1,
		}
	}
	return songs
}

func generate(t *testing.T, songs []*models.Song, size int) []*models.Match {
	t.Helper()
	g := NewSingleEliminationGenerator()
	matches, err := g.GenerateBracket(context.Background(), GenerateBracketParams{Songs: songs, Size: size})
	require.NoError(t, err)
	return matches
}

func TestGenerateBracket_Counts(t *testing.T) {
	for _, size := range []int{2, 4, 8, 16, 32, 64} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			matches := generate(t, makeSongs(size), size)
			rounds := RoundsForSize(size)

			assert.Len(t, matches, size-1)

			perRound := map[int]int{}
			finals := 0
			for _, m := range matches {
				perRound[m.Round]++
				if m.NextMatchID == nil {
					finals++
					assert.Equal(t, rounds, m.Round)
					assert.Nil(t, m.NextMatchSlot)
				}
				assert.Equal(t, models.MatchStatusLocked, m.Status)
				assert.Nil(t, m.WinnerID)
				assert.Nil(t, m.Day)
			}
			assert.Equal(t, 1, finals)
			for r := 1; r <= rounds; r++ {
				assert.Equal(t, size>>r, perRound[r], "round %d", r)
			}
		})
	}
}

func TestGenerateBracket_LeafPathsReachFinal(t *testing.T) {
	for _, size := range []int{2, 4, 8, 16, 32, 64} {
		matches := generate(t, makeSongs(size), size)
		rounds := RoundsForSize(size)

		byID := make(map[string]*models.Match, len(matches))
		for _, m := range matches {
			byID[m.ID] = m
		}

		for _, m := range matches {
			if m.Round != 1 {
				continue
			}
			hops := 0
			cur := m
			for cur.NextMatchID != nil {
				parent, ok := byID[*cur.NextMatchID]
				require.True(t, ok, "dangling parent %s", *cur.NextMatchID)
				require.Equal(t, cur.Round+1, parent.Round)
				cur = parent
				hops++
			}
			assert.Equal(t, rounds-1, hops, "size %d from %s", size, m.ID)
			assert.Equal(t, MatchID(rounds, 1), cur.ID)
		}
	}
}

func TestGenerateBracket_EightSongScenario(t *testing.T) {
	matches := generate(t, makeSongs(8), 8)

	byID := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}

	final := byID["r3-m1"]
	require.NotNil(t, final)
	assert.Nil(t, final.NextMatchID)
	assert.Equal(t, models.TBDTitle, final.Song1Title)
	assert.Nil(t, final.Song1ID)

	parents := []struct {
		id     string
		parent string
		slot   models.MatchSlot
	}{
		{"r2-m1", "r3-m1", models.SlotSong1},
		{"r2-m2", "r3-m1", models.SlotSong2},
		{"r1-m1", "r2-m1", models.SlotSong1},
		{"r1-m2", "r2-m1", models.SlotSong2},
		{"r1-m3", "r2-m2", models.SlotSong1},
		{"r1-m4", "r2-m2", models.SlotSong2},
	}
	for _, tc := range parents {
		m := byID[tc.id]
		require.NotNil(t, m, tc.id)
		require.NotNil(t, m.NextMatchID, tc.id)
		assert.Equal(t, tc.parent, *m.NextMatchID, tc.id)
		require.NotNil(t, m.NextMatchSlot, tc.id)
		assert.Equal(t, tc.slot, *m.NextMatchSlot, tc.id)
	}

	leaves := map[string][2]string{
		"r1-m1": {"S1", "S2"},
		"r1-m2": {"S3", "S4"},
		"r1-m3": {"S5", "S6"},
		"r1-m4": {"S7", "S8"},
	}
	for id, pair := range leaves {
		m := byID[id]
		require.NotNil(t, m.Song1ID)
		require.NotNil(t, m.Song2ID)
		assert.Equal(t, pair[0], *m.Song1ID, id)
		assert.Equal(t, pair[1], *m.Song2ID, id)
		assert.Equal(t, "Song "+pair[0][1:], m.Song1Title)
	}
}

func TestGenerateBracket_ExtraSongsIgnored(t *testing.T) {
	matches := generate(t, makeSongs(7), 4)

	seen := map[string]bool{}
	for _, m := range matches {
		for _, id := range m.Contestants() {
			seen[id] = true
		}
	}
	assert.Equal(t, map[string]bool{"S1": true, "S2": true, "S3": true, "S4": true}, seen)
}

func TestGenerateBracket_ScopeStamped(t *testing.T) {
	g := NewSingleEliminationGenerator()
	matches, err := g.GenerateBracket(context.Background(), GenerateBracketParams{
		Scope: models.ScopeFor("b-1"),
		Songs: makeSongs(4),
		Size:  4,
	})
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, "b-1", m.BracketID)
	}
}

func TestGenerateBracket_Errors(t *testing.T) {
	g := NewSingleEliminationGenerator()
	tests := []struct {
		name  string
		songs int
		size  int
		want  error
	}{
		{"zero size", 4, 0, ErrInvalidBracketSize},
		{"size one", 4, 1, ErrInvalidBracketSize},
		{"not power of two", 6, 6, ErrInvalidBracketSize},
		{"negative", 4, -4, ErrInvalidBracketSize},
		{"not enough songs", 3, 4, ErrNotEnoughSongs},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.GenerateBracket(context.Background(), GenerateBracketParams{Songs: makeSongs(tc.songs), Size: tc.size})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
