package docstore

import (
	"time"

	"github.com/Dosada05/song-bracket/models"
)

const bracketIDField = "bracketId"

type songDoc struct {
	Title      string    `firestore:"title"`
	Artist     string    `firestore:"artist"`
	YouTubeURL *string   `firestore:"youtubeUrl"`
	Seed       int       `firestore:"seed"`
	Order      int       `firestore:"order"`
	Deleted    bool      `firestore:"deleted"`
	BracketID  *string   `firestore:"bracketId"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func songToDoc(s *models.Song) songDoc {
	return songDoc{
		Title:      s.Title,
		Artist:     s.Artist,
		YouTubeURL: s.YouTubeURL,
		Seed:       s.Seed,
		Order:      s.Order,
		Deleted:    s.Status.Deleted(),
		BracketID:  bracketIDPtr(s.BracketID),
		CreatedAt:  s.CreatedAt,
	}
}

func (d songDoc) toModel(id string) *models.Song {
	return &models.Song{
		ID:         id,
		BracketID:  derefBracketID(d.BracketID),
		Title:      d.Title,
		Artist:     d.Artist,
		YouTubeURL: d.YouTubeURL,
		Seed:       d.Seed,
		Order:      d.Order,
		Status:     models.EntityStatusFromDeleted(d.Deleted),
		CreatedAt:  d.CreatedAt,
	}
}

type classDoc struct {
	Name      string    `firestore:"name"`
	Order     int       `firestore:"order"`
	Deleted   bool      `firestore:"deleted"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func classToDoc(c *models.VoterGroup) classDoc {
	return classDoc{Name: c.Name, Order: c.Order, Deleted: c.Status.Deleted(), CreatedAt: c.CreatedAt}
}

func (d classDoc) toModel(id string) *models.VoterGroup {
	return &models.VoterGroup{
		ID:        id,
		Name:      d.Name,
		Order:     d.Order,
		Status:    models.EntityStatusFromDeleted(d.Deleted),
		CreatedAt: d.CreatedAt,
	}
}

type matchDoc struct {
	MatchID       string  `firestore:"matchId"`
	Round         int     `firestore:"round"`
	Song1ID       *string `firestore:"song1Id"`
	Song1Title    string  `firestore:"song1Title"`
	Song2ID       *string `firestore:"song2Id"`
	Song2Title    string  `firestore:"song2Title"`
	WinnerID      *string `firestore:"winnerId"`
	NextMatchID   *string `firestore:"nextMatchId"`
	NextMatchSlot *string `firestore:"nextMatchSlot"`
	Status        string  `firestore:"status"`
	Day           *string `firestore:"day"`
	BracketID     *string `firestore:"bracketId"`
}

func matchToDoc(m *models.Match) matchDoc {
	d := matchDoc{
		MatchID:     m.ID,
		Round:       m.Round,
		Song1ID:     m.Song1ID,
		Song1Title:  m.Song1Title,
		Song2ID:     m.Song2ID,
		Song2Title:  m.Song2Title,
		WinnerID:    m.WinnerID,
		NextMatchID: m.NextMatchID,
		Status:      string(m.Status),
		Day:         m.Day,
		BracketID:   bracketIDPtr(m.BracketID),
	}
	if m.NextMatchSlot != nil {
		slot := string(*m.NextMatchSlot)
		d.NextMatchSlot = &slot
	}
	return d
}

// toModel: старые документы не содержат matchId, тогда id документа и есть id матча.
func (d matchDoc) toModel(docID string) *models.Match {
	id := d.MatchID
	if id == "" {
		id = docID
	}
	m := &models.Match{
		ID:          id,
		BracketID:   derefBracketID(d.BracketID),
		Round:       d.Round,
		Song1ID:     d.Song1ID,
		Song1Title:  d.Song1Title,
		Song2ID:     d.Song2ID,
		Song2Title:  d.Song2Title,
		WinnerID:    d.WinnerID,
		NextMatchID: d.NextMatchID,
		Status:      models.MatchStatus(d.Status),
		Day:         d.Day,
	}
	if d.NextMatchSlot != nil {
		slot := models.MatchSlot(*d.NextMatchSlot)
		m.NextMatchSlot = &slot
	}
	return m
}

// matchDocID: у legacy-сетки id документа совпадает с id матча.
func matchDocID(bracketID, matchID string) string {
	if bracketID == "" {
		return matchID
	}
	return bracketID + "__" + matchID
}

type voteDoc struct {
	MatchID    string    `firestore:"matchId"`
	ClassID    string    `firestore:"classId"`
	VotedForID string    `firestore:"votedForId"`
	Timestamp  time.Time `firestore:"timestamp"`
	BracketID  *string   `firestore:"bracketId"`
}

func voteToDoc(v *models.Vote) voteDoc {
	return voteDoc{
		MatchID:    v.MatchID,
		ClassID:    v.ClassID,
		VotedForID: v.VotedForID,
		Timestamp:  v.Timestamp,
		BracketID:  bracketIDPtr(v.BracketID),
	}
}

func (d voteDoc) toModel(id string) *models.Vote {
	return &models.Vote{
		ID:         id,
		BracketID:  derefBracketID(d.BracketID),
		MatchID:    d.MatchID,
		ClassID:    d.ClassID,
		VotedForID: d.VotedForID,
		Timestamp:  d.Timestamp,
	}
}

type bracketDoc struct {
	Name      string    `firestore:"name"`
	IsActive  bool      `firestore:"isActive"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (d bracketDoc) toModel(id string) *models.Bracket {
	return &models.Bracket{ID: id, Name: d.Name, IsActive: d.IsActive, CreatedAt: d.CreatedAt}
}

func bracketIDPtr(bracketID string) *string {
	if bracketID == "" {
		return nil
	}
	return &bracketID
}

func derefBracketID(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
