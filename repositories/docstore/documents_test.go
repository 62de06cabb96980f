package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/models"
)

func TestMatchDocID(t *testing.T) {
	assert.Equal(t, "r1-m1", matchDocID("", "r1-m1"))
	assert.Equal(t, "b-1__r1-m1", matchDocID("b-1", "r1-m1"))
}

func TestMatchDocRoundTrip(t *testing.T) {
	parent := "r2-m1"
	slot := models.SlotSong2
	s1, s2 := "s-1", "s-2"
	m := &models.Match{
		ID:            "r1-m2",
		BracketID:     "b-1",
		Round:         1,
		Song1ID:       &s1,
		Song1Title:    "One",
		Song2ID:       &s2,
		Song2Title:    "Two",
		NextMatchID:   &parent,
		NextMatchSlot: &slot,
		Status:        models.MatchStatusOpen,
	}

	doc := matchToDoc(m)
	require.NotNil(t, doc.BracketID)
	require.NotNil(t, doc.NextMatchSlot)
	assert.Equal(t, "song2", *doc.NextMatchSlot)
	assert.Equal(t, "open", doc.Status)

	back := doc.toModel(matchDocID(m.BracketID, m.ID))
	assert.Equal(t, m, back)
}

func TestMatchDoc_LegacyDocumentWithoutMatchID(t *testing.T) {
	doc := matchDoc{Round: 3, Song1Title: models.TBDTitle, Song2Title: models.TBDTitle, Status: "locked"}
	m := doc.toModel("r3-m1")
	assert.Equal(t, "r3-m1", m.ID)
	assert.True(t, m.Scope().IsLegacy())
	assert.True(t, m.IsFinal())
}

func TestSongDoc_DeletedMapsToRetired(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := songDoc{Title: "A", Artist: "B", Order: 3, Deleted: true, CreatedAt: created}
	song := doc.toModel("s-1")
	assert.Equal(t, models.EntityStatusRetired, song.Status)
	assert.Equal(t, "", song.BracketID)

	assert.True(t, songToDoc(song).Deleted)
	assert.Nil(t, songToDoc(song).BracketID)
}
