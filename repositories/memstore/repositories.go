package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

type songRepository struct {
	acc accessor
	now func() time.Time
}

func (r *songRepository) Create(ctx context.Context, song *models.Song) error {
	if song.ID == "" {
		song.ID = uuid.NewString()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = r.now()
	}
	if song.Status == "" {
		song.Status = models.EntityStatusActive
	}
	return r.acc.write(func(st *state) error {
		if _, exists := st.songs[song.ID]; exists {
			return fmt.Errorf("song %s already exists", song.ID)
		}
		st.songs[song.ID] = cloneSong(*song)
		return nil
	})
}

func (r *songRepository) GetByID(ctx context.Context, id string) (*models.Song, error) {
	var out *models.Song
	err := r.acc.read(func(st *state) error {
		s, ok := st.songs[id]
		if !ok {
			return repositories.ErrSongNotFound
		}
		cp := cloneSong(s)
		out = &cp
		return nil
	})
	return out, err
}

func (r *songRepository) ListByScope(ctx context.Context, scope models.BracketScope, includeRetired bool) ([]*models.Song, error) {
	out := make([]*models.Song, 0)
	err := r.acc.read(func(st *state) error {
		for _, s := range st.songs {
			if !inScope(s.BracketID, scope) || (!includeRetired && !s.IsActive()) {
				continue
			}
			cp := cloneSong(s)
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, err
}

func (r *songRepository) Update(ctx context.Context, song *models.Song) error {
	return r.acc.write(func(st *state) error {
		existing, ok := st.songs[song.ID]
		if !ok {
			return repositories.ErrSongNotFound
		}
		updated := cloneSong(*song)
		updated.BracketID = existing.BracketID
		updated.CreatedAt = existing.CreatedAt
		st.songs[song.ID] = updated
		return nil
	})
}

func (r *songRepository) MaxOrder(ctx context.Context, scope models.BracketScope) (int, error) {
	maxOrder := 0
	err := r.acc.read(func(st *state) error {
		for _, s := range st.songs {
			if inScope(s.BracketID, scope) && s.Order > maxOrder {
				maxOrder = s.Order
			}
		}
		return nil
	})
	return maxOrder, err
}

func (r *songRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	n := 0
	err := r.acc.write(func(st *state) error {
		for id, s := range st.songs {
			if s.BracketID == "" {
				s.BracketID = bracketID
				st.songs[id] = s
				n++
			}
		}
		return nil
	})
	return n, err
}

type classRepository struct {
	acc accessor
	now func() time.Time
}

func (r *classRepository) Create(ctx context.Context, class *models.VoterGroup) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = r.now()
	}
	if class.Status == "" {
		class.Status = models.EntityStatusActive
	}
	return r.acc.write(func(st *state) error {
		if _, exists := st.classes[class.ID]; exists {
			return fmt.Errorf("class %s already exists", class.ID)
		}
		st.classes[class.ID] = *class
		return nil
	})
}

func (r *classRepository) GetByID(ctx context.Context, id string) (*models.VoterGroup, error) {
	var out *models.VoterGroup
	err := r.acc.read(func(st *state) error {
		c, ok := st.classes[id]
		if !ok {
			return repositories.ErrClassNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *classRepository) List(ctx context.Context, includeRetired bool) ([]*models.VoterGroup, error) {
	out := make([]*models.VoterGroup, 0)
	err := r.acc.read(func(st *state) error {
		for _, c := range st.classes {
			if !includeRetired && !c.IsActive() {
				continue
			}
			cp := c
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, err
}

func (r *classRepository) Update(ctx context.Context, class *models.VoterGroup) error {
	return r.acc.write(func(st *state) error {
		existing, ok := st.classes[class.ID]
		if !ok {
			return repositories.ErrClassNotFound
		}
		updated := *class
		updated.CreatedAt = existing.CreatedAt
		st.classes[class.ID] = updated
		return nil
	})
}

func (r *classRepository) MaxOrder(ctx context.Context) (int, error) {
	maxOrder := 0
	err := r.acc.read(func(st *state) error {
		for _, c := range st.classes {
			if c.Order > maxOrder {
				maxOrder = c.Order
			}
		}
		return nil
	})
	return maxOrder, err
}

type matchRepository struct {
	acc accessor
}

func (r *matchRepository) CreateMany(ctx context.Context, matches []*models.Match) error {
	return r.acc.write(func(st *state) error {
		seen := make(map[matchKey]bool, len(matches))
		for _, m := range matches {
			key := matchKey{bracketID: m.BracketID, id: m.ID}
			if _, exists := st.matches[key]; exists || seen[key] {
				return repositories.ErrMatchConflict
			}
			seen[key] = true
		}
		for _, m := range matches {
			st.matches[matchKey{bracketID: m.BracketID, id: m.ID}] = cloneMatch(*m)
		}
		return nil
	})
}

func (r *matchRepository) GetByID(ctx context.Context, scope models.BracketScope, id string) (*models.Match, error) {
	var out *models.Match
	err := r.acc.read(func(st *state) error {
		m, ok := st.matches[matchKey{bracketID: scope.BracketID, id: id}]
		if !ok {
			return repositories.ErrMatchNotFound
		}
		cp := cloneMatch(m)
		out = &cp
		return nil
	})
	return out, err
}

func (r *matchRepository) ListByScope(ctx context.Context, scope models.BracketScope, filter repositories.MatchFilter) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	err := r.acc.read(func(st *state) error {
		for key, m := range st.matches {
			if !inScope(key.bracketID, scope) {
				continue
			}
			if filter.Status != nil && m.Status != *filter.Status {
				continue
			}
			if filter.Round != nil && m.Round != *filter.Round {
				continue
			}
			cp := cloneMatch(m)
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *matchRepository) Update(ctx context.Context, match *models.Match) error {
	return r.acc.write(func(st *state) error {
		key := matchKey{bracketID: match.BracketID, id: match.ID}
		existing, ok := st.matches[key]
		if !ok {
			return repositories.ErrMatchNotFound
		}
		updated := cloneMatch(*match)
		updated.Round = existing.Round
		st.matches[key] = updated
		return nil
	})
}

func (r *matchRepository) DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error) {
	n := 0
	err := r.acc.write(func(st *state) error {
		for key := range st.matches {
			if inScope(key.bracketID, scope) {
				delete(st.matches, key)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *matchRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	n := 0
	err := r.acc.write(func(st *state) error {
		for key, m := range st.matches {
			if key.bracketID != "" {
				continue
			}
			newKey := matchKey{bracketID: bracketID, id: key.id}
			if _, exists := st.matches[newKey]; exists {
				return repositories.ErrMatchConflict
			}
			m.BracketID = bracketID
			delete(st.matches, key)
			st.matches[newKey] = m
			n++
		}
		return nil
	})
	return n, err
}

type voteRepository struct {
	acc accessor
	now func() time.Time
}

func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	if vote.Timestamp.IsZero() {
		vote.Timestamp = r.now()
	}
	return r.acc.write(func(st *state) error {
		if _, ok := st.classes[vote.ClassID]; !ok {
			return repositories.ErrClassNotFound
		}
		for _, v := range st.votes {
			if v.BracketID == vote.BracketID && v.MatchID == vote.MatchID && v.ClassID == vote.ClassID {
				return repositories.ErrVoteConflict
			}
		}
		st.votes[vote.ID] = *vote
		return nil
	})
}

func (r *voteRepository) GetByID(ctx context.Context, id string) (*models.Vote, error) {
	var out *models.Vote
	err := r.acc.read(func(st *state) error {
		v, ok := st.votes[id]
		if !ok {
			return repositories.ErrVoteNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *voteRepository) list(match func(v models.Vote) bool) ([]*models.Vote, error) {
	out := make([]*models.Vote, 0)
	err := r.acc.read(func(st *state) error {
		for _, v := range st.votes {
			if match(v) {
				cp := v
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *voteRepository) ListByMatch(ctx context.Context, scope models.BracketScope, matchID string) ([]*models.Vote, error) {
	return r.list(func(v models.Vote) bool {
		return inScope(v.BracketID, scope) && v.MatchID == matchID
	})
}

func (r *voteRepository) ListByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) ([]*models.Vote, error) {
	return r.list(func(v models.Vote) bool {
		return inScope(v.BracketID, scope) && v.MatchID == matchID && v.ClassID == classID
	})
}

func (r *voteRepository) ListByScope(ctx context.Context, scope models.BracketScope) ([]*models.Vote, error) {
	return r.list(func(v models.Vote) bool {
		return inScope(v.BracketID, scope)
	})
}

func (r *voteRepository) UpdateVotedFor(ctx context.Context, id, votedForID string) error {
	return r.acc.write(func(st *state) error {
		v, ok := st.votes[id]
		if !ok {
			return repositories.ErrVoteNotFound
		}
		v.VotedForID = votedForID
		st.votes[id] = v
		return nil
	})
}

func (r *voteRepository) deleteWhere(match func(v models.Vote) bool) (int, error) {
	n := 0
	err := r.acc.write(func(st *state) error {
		for id, v := range st.votes {
			if match(v) {
				delete(st.votes, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *voteRepository) DeleteByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) (int, error) {
	return r.deleteWhere(func(v models.Vote) bool {
		return inScope(v.BracketID, scope) && v.MatchID == matchID && v.ClassID == classID
	})
}

func (r *voteRepository) DeleteByMatch(ctx context.Context, scope models.BracketScope, matchID string) (int, error) {
	return r.deleteWhere(func(v models.Vote) bool {
		return inScope(v.BracketID, scope) && v.MatchID == matchID
	})
}

func (r *voteRepository) DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error) {
	return r.deleteWhere(func(v models.Vote) bool {
		return inScope(v.BracketID, scope)
	})
}

func (r *voteRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	n := 0
	err := r.acc.write(func(st *state) error {
		for id, v := range st.votes {
			if v.BracketID == "" {
				v.BracketID = bracketID
				st.votes[id] = v
				n++
			}
		}
		return nil
	})
	return n, err
}

type bracketRepository struct {
	acc accessor
	now func() time.Time
}

func (r *bracketRepository) Create(ctx context.Context, bracket *models.Bracket) error {
	if bracket.ID == "" {
		bracket.ID = uuid.NewString()
	}
	if bracket.CreatedAt.IsZero() {
		bracket.CreatedAt = r.now()
	}
	return r.acc.write(func(st *state) error {
		if _, exists := st.brackets[bracket.ID]; exists {
			return fmt.Errorf("bracket %s already exists", bracket.ID)
		}
		st.brackets[bracket.ID] = *bracket
		return nil
	})
}

func (r *bracketRepository) GetByID(ctx context.Context, id string) (*models.Bracket, error) {
	var out *models.Bracket
	err := r.acc.read(func(st *state) error {
		b, ok := st.brackets[id]
		if !ok {
			return repositories.ErrBracketNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bracketRepository) List(ctx context.Context) ([]*models.Bracket, error) {
	out := make([]*models.Bracket, 0)
	err := r.acc.read(func(st *state) error {
		for _, b := range st.brackets {
			cp := b
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *bracketRepository) GetActive(ctx context.Context) (*models.Bracket, error) {
	var out *models.Bracket
	err := r.acc.read(func(st *state) error {
		for _, b := range st.brackets {
			if b.IsActive {
				cp := b
				out = &cp
				return nil
			}
		}
		return repositories.ErrBracketNotFound
	})
	return out, err
}

func (r *bracketRepository) SetActive(ctx context.Context, id string) error {
	return r.acc.write(func(st *state) error {
		if _, ok := st.brackets[id]; !ok {
			return repositories.ErrBracketNotFound
		}
		for key, b := range st.brackets {
			b.IsActive = key == id
			st.brackets[key] = b
		}
		return nil
	})
}

func (r *bracketRepository) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.acc.read(func(st *state) error {
		n = len(st.brackets)
		return nil
	})
	return n, err
}
