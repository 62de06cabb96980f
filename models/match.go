package models

type MatchStatus string

const (
	MatchStatusLocked MatchStatus = "locked"
	MatchStatusOpen   MatchStatus = "open"
	MatchStatusClosed MatchStatus = "closed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusLocked, MatchStatusOpen, MatchStatusClosed:
		return true
	}
	return false
}

// MatchSlot - слот родительского матча, в который уходит победитель.
type MatchSlot string

const (
	SlotSong1 MatchSlot = "song1"
	SlotSong2 MatchSlot = "song2"
)

// TBDTitle отображается в пустом слоте, пока дочерний матч не сыгран.
const TBDTitle = "TBD"

// DayLayout - формат поля Day.
const DayLayout = "2006-01-02"

type Match struct {
	ID            string      `json:"id" db:"id"`
	BracketID     string      `json:"bracket_id,omitempty" db:"bracket_id"`
	Round         int         `json:"round" db:"round"`
	Song1ID       *string     `json:"song1_id" db:"song1_id"`
	Song1Title    string      `json:"song1_title" db:"song1_title"`
	Song2ID       *string     `json:"song2_id" db:"song2_id"`
	Song2Title    string      `json:"song2_title" db:"song2_title"`
	WinnerID      *string     `json:"winner_id" db:"winner_id"`
	NextMatchID   *string     `json:"next_match_id" db:"next_match_id"`
	NextMatchSlot *MatchSlot  `json:"next_match_slot" db:"next_match_slot"`
	Status        MatchStatus `json:"status" db:"status"`
	Day           *string     `json:"day" db:"day"`
}

func (m *Match) Scope() BracketScope {
	return ScopeFor(m.BracketID)
}

// HasBothContestants сообщает, заполнены ли оба слота.
func (m *Match) HasBothContestants() bool {
	return m.Song1ID != nil && *m.Song1ID != "" && m.Song2ID != nil && *m.Song2ID != ""
}

// IsContestant reports whether songID currently occupies one of the two slots.
func (m *Match) IsContestant(songID string) bool {
	if songID == "" {
		return false
	}
	return (m.Song1ID != nil && *m.Song1ID == songID) || (m.Song2ID != nil && *m.Song2ID == songID)
}

// ContestantTitle returns the title recorded next to songID.
func (m *Match) ContestantTitle(songID string) string {
	switch {
	case m.Song1ID != nil && *m.Song1ID == songID:
		return m.Song1Title
	case m.Song2ID != nil && *m.Song2ID == songID:
		return m.Song2Title
	}
	return ""
}

// Contestants returns the filled slot ids in slot order.
func (m *Match) Contestants() []string {
	ids := make([]string, 0, 2)
	if m.Song1ID != nil && *m.Song1ID != "" {
		ids = append(ids, *m.Song1ID)
	}
	if m.Song2ID != nil && *m.Song2ID != "" {
		ids = append(ids, *m.Song2ID)
	}
	return ids
}

// FillSlot writes a contestant into the given slot.
func (m *Match) FillSlot(slot MatchSlot, songID, title string) {
	id := songID
	switch slot {
	case SlotSong1:
		m.Song1ID = &id
		m.Song1Title = title
	case SlotSong2:
		m.Song2ID = &id
		m.Song2Title = title
	}
}

func (m *Match) IsFinal() bool {
	return m.NextMatchID == nil
}
