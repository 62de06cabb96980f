package docstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

// scopedQuery строит запрос по сетке. Legacy-документы могут вообще не иметь
// поля bracketId, поэтому для legacy-сетки фильтрация делается после чтения.
func scopedQuery(col *firestore.CollectionRef, scope models.BracketScope) firestore.Query {
	if scope.IsLegacy() {
		return col.Query
	}
	return col.Where(bracketIDField, "==", scope.BracketID)
}

type songRepository struct {
	sess *session
}

func (r *songRepository) col() *firestore.CollectionRef {
	return r.sess.collection(songsCollection)
}

func (r *songRepository) Create(ctx context.Context, song *models.Song) error {
	if song.ID == "" {
		song.ID = uuid.NewString()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	if song.Status == "" {
		song.Status = models.EntityStatusActive
	}
	if err := r.sess.create(ctx, r.col().Doc(song.ID), songToDoc(song)); err != nil {
		return fmt.Errorf("failed to create song %s: %w", song.ID, err)
	}
	return nil
}

func (r *songRepository) GetByID(ctx context.Context, id string) (*models.Song, error) {
	snap, err := r.sess.get(ctx, r.col().Doc(id))
	if err != nil {
		return nil, mapNotFound(err, repositories.ErrSongNotFound)
	}
	var doc songDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode song %s: %w", id, err)
	}
	return doc.toModel(snap.Ref.ID), nil
}

func (r *songRepository) ListByScope(ctx context.Context, scope models.BracketScope, includeRetired bool) ([]*models.Song, error) {
	snaps, err := r.sess.query(ctx, scopedQuery(r.col(), scope))
	if err != nil {
		return nil, fmt.Errorf("failed to list songs for bracket %s: %w", scope, err)
	}

	songs := make([]*models.Song, 0, len(snaps))
	for _, snap := range snaps {
		var doc songDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode song %s: %w", snap.Ref.ID, err)
		}
		song := doc.toModel(snap.Ref.ID)
		if song.BracketID != scope.BracketID || (!includeRetired && !song.IsActive()) {
			continue
		}
		songs = append(songs, song)
	}

	sort.Slice(songs, func(i, j int) bool {
		a, b := songs[i], songs[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return songs, nil
}

func (r *songRepository) Update(ctx context.Context, song *models.Song) error {
	err := r.sess.update(ctx, r.col().Doc(song.ID), []firestore.Update{
		{Path: "title", Value: song.Title},
		{Path: "artist", Value: song.Artist},
		{Path: "youtubeUrl", Value: song.YouTubeURL},
		{Path: "seed", Value: song.Seed},
		{Path: "order", Value: song.Order},
		{Path: "deleted", Value: song.Status.Deleted()},
	})
	if err != nil {
		return mapNotFound(err, repositories.ErrSongNotFound)
	}
	return nil
}

func (r *songRepository) MaxOrder(ctx context.Context, scope models.BracketScope) (int, error) {
	songs, err := r.ListByScope(ctx, scope, true)
	if err != nil {
		return 0, err
	}
	maxOrder := 0
	for _, s := range songs {
		if s.Order > maxOrder {
			maxOrder = s.Order
		}
	}
	return maxOrder, nil
}

func (r *songRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	songs, err := r.ListByScope(ctx, models.LegacyScope(), true)
	if err != nil {
		return 0, err
	}
	for _, s := range songs {
		if err := r.sess.update(ctx, r.col().Doc(s.ID), []firestore.Update{{Path: bracketIDField, Value: bracketID}}); err != nil {
			return 0, fmt.Errorf("failed to stamp song %s: %w", s.ID, err)
		}
	}
	return len(songs), nil
}

type classRepository struct {
	sess *session
}

func (r *classRepository) col() *firestore.CollectionRef {
	return r.sess.collection(classesCollection)
}

func (r *classRepository) Create(ctx context.Context, class *models.VoterGroup) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	if class.Status == "" {
		class.Status = models.EntityStatusActive
	}
	if err := r.sess.create(ctx, r.col().Doc(class.ID), classToDoc(class)); err != nil {
		return fmt.Errorf("failed to create class %s: %w", class.ID, err)
	}
	return nil
}

func (r *classRepository) GetByID(ctx context.Context, id string) (*models.VoterGroup, error) {
	snap, err := r.sess.get(ctx, r.col().Doc(id))
	if err != nil {
		return nil, mapNotFound(err, repositories.ErrClassNotFound)
	}
	var doc classDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode class %s: %w", id, err)
	}
	return doc.toModel(snap.Ref.ID), nil
}

func (r *classRepository) List(ctx context.Context, includeRetired bool) ([]*models.VoterGroup, error) {
	snaps, err := r.sess.query(ctx, r.col().Query)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	classes := make([]*models.VoterGroup, 0, len(snaps))
	for _, snap := range snaps {
		var doc classDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode class %s: %w", snap.Ref.ID, err)
		}
		class := doc.toModel(snap.Ref.ID)
		if !includeRetired && !class.IsActive() {
			continue
		}
		classes = append(classes, class)
	}

	sort.Slice(classes, func(i, j int) bool {
		a, b := classes[i], classes[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return classes, nil
}

func (r *classRepository) Update(ctx context.Context, class *models.VoterGroup) error {
	err := r.sess.update(ctx, r.col().Doc(class.ID), []firestore.Update{
		{Path: "name", Value: class.Name},
		{Path: "order", Value: class.Order},
		{Path: "deleted", Value: class.Status.Deleted()},
	})
	if err != nil {
		return mapNotFound(err, repositories.ErrClassNotFound)
	}
	return nil
}

func (r *classRepository) MaxOrder(ctx context.Context) (int, error) {
	classes, err := r.List(ctx, true)
	if err != nil {
		return 0, err
	}
	maxOrder := 0
	for _, c := range classes {
		if c.Order > maxOrder {
			maxOrder = c.Order
		}
	}
	return maxOrder, nil
}

type matchRepository struct {
	sess *session
}

func (r *matchRepository) col() *firestore.CollectionRef {
	return r.sess.collection(matchesCollection)
}

func (r *matchRepository) CreateMany(ctx context.Context, matches []*models.Match) error {
	for _, m := range matches {
		err := r.sess.create(ctx, r.col().Doc(matchDocID(m.BracketID, m.ID)), matchToDoc(m))
		if status.Code(err) == codes.AlreadyExists {
			return repositories.ErrMatchConflict
		}
		if err != nil {
			return fmt.Errorf("failed to create match %s: %w", m.ID, err)
		}
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, scope models.BracketScope, id string) (*models.Match, error) {
	snap, err := r.sess.get(ctx, r.col().Doc(matchDocID(scope.BracketID, id)))
	if err != nil {
		return nil, mapNotFound(err, repositories.ErrMatchNotFound)
	}
	var doc matchDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode match %s: %w", id, err)
	}
	match := doc.toModel(snap.Ref.ID)
	if match.BracketID != scope.BracketID {
		return nil, repositories.ErrMatchNotFound
	}
	return match, nil
}

type matchSnapshot struct {
	ref   *firestore.DocumentRef
	match *models.Match
}

func (r *matchRepository) listSnapshots(ctx context.Context, scope models.BracketScope) ([]matchSnapshot, error) {
	snaps, err := r.sess.query(ctx, scopedQuery(r.col(), scope))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for bracket %s: %w", scope, err)
	}
	out := make([]matchSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		var doc matchDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode match %s: %w", snap.Ref.ID, err)
		}
		m := doc.toModel(snap.Ref.ID)
		if m.BracketID != scope.BracketID {
			continue
		}
		out = append(out, matchSnapshot{ref: snap.Ref, match: m})
	}
	return out, nil
}

func (r *matchRepository) ListByScope(ctx context.Context, scope models.BracketScope, filter repositories.MatchFilter) ([]*models.Match, error) {
	snaps, err := r.listSnapshots(ctx, scope)
	if err != nil {
		return nil, err
	}
	matches := make([]*models.Match, 0, len(snaps))
	for _, s := range snaps {
		if filter.Status != nil && s.match.Status != *filter.Status {
			continue
		}
		if filter.Round != nil && s.match.Round != *filter.Round {
			continue
		}
		matches = append(matches, s.match)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *matchRepository) Update(ctx context.Context, match *models.Match) error {
	doc := matchToDoc(match)
	err := r.sess.update(ctx, r.col().Doc(matchDocID(match.BracketID, match.ID)), []firestore.Update{
		{Path: "song1Id", Value: doc.Song1ID},
		{Path: "song1Title", Value: doc.Song1Title},
		{Path: "song2Id", Value: doc.Song2ID},
		{Path: "song2Title", Value: doc.Song2Title},
		{Path: "winnerId", Value: doc.WinnerID},
		{Path: "nextMatchId", Value: doc.NextMatchID},
		{Path: "nextMatchSlot", Value: doc.NextMatchSlot},
		{Path: "status", Value: doc.Status},
		{Path: "day", Value: doc.Day},
	})
	if err != nil {
		return mapNotFound(err, repositories.ErrMatchNotFound)
	}
	return nil
}

func (r *matchRepository) DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error) {
	snaps, err := r.listSnapshots(ctx, scope)
	if err != nil {
		return 0, err
	}
	for _, s := range snaps {
		if err := r.sess.delete(ctx, s.ref); err != nil {
			return 0, fmt.Errorf("failed to delete match %s: %w", s.match.ID, err)
		}
	}
	return len(snaps), nil
}

// AssignLegacyToBracket переносит документы: id документа зависит от сетки.
func (r *matchRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	snaps, err := r.listSnapshots(ctx, models.LegacyScope())
	if err != nil {
		return 0, err
	}
	for _, s := range snaps {
		s.match.BracketID = bracketID
		if err := r.sess.set(ctx, r.col().Doc(matchDocID(bracketID, s.match.ID)), matchToDoc(s.match)); err != nil {
			return 0, fmt.Errorf("failed to copy match %s: %w", s.match.ID, err)
		}
		if err := r.sess.delete(ctx, s.ref); err != nil {
			return 0, fmt.Errorf("failed to delete legacy match %s: %w", s.match.ID, err)
		}
	}
	return len(snaps), nil
}

type voteRepository struct {
	sess *session
}

func (r *voteRepository) col() *firestore.CollectionRef {
	return r.sess.collection(votesCollection)
}

// Create проверяет дубликат чтением перед записью. Гонка между двумя
// одновременными транзакциями здесь не исключена.
func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	if vote.Timestamp.IsZero() {
		vote.Timestamp = time.Now().UTC()
	}

	if _, err := r.sess.get(ctx, r.sess.collection(classesCollection).Doc(vote.ClassID)); err != nil {
		return mapNotFound(err, repositories.ErrClassNotFound)
	}

	existing, err := r.ListByMatchAndClass(ctx, models.ScopeFor(vote.BracketID), vote.MatchID, vote.ClassID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return repositories.ErrVoteConflict
	}

	if err := r.sess.create(ctx, r.col().Doc(vote.ID), voteToDoc(vote)); err != nil {
		return fmt.Errorf("failed to create vote for match %s: %w", vote.MatchID, err)
	}
	return nil
}

func (r *voteRepository) GetByID(ctx context.Context, id string) (*models.Vote, error) {
	snap, err := r.sess.get(ctx, r.col().Doc(id))
	if err != nil {
		return nil, mapNotFound(err, repositories.ErrVoteNotFound)
	}
	var doc voteDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode vote %s: %w", id, err)
	}
	return doc.toModel(snap.Ref.ID), nil
}

type voteSnapshot struct {
	ref  *firestore.DocumentRef
	vote *models.Vote
}

func (r *voteRepository) listSnapshots(ctx context.Context, scope models.BracketScope, matchID, classID string) ([]voteSnapshot, error) {
	q := scopedQuery(r.col(), scope)
	if matchID != "" {
		q = q.Where("matchId", "==", matchID)
	}
	if classID != "" {
		q = q.Where("classId", "==", classID)
	}

	snaps, err := r.sess.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	out := make([]voteSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		var doc voteDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode vote %s: %w", snap.Ref.ID, err)
		}
		v := doc.toModel(snap.Ref.ID)
		if v.BracketID != scope.BracketID {
			continue
		}
		out = append(out, voteSnapshot{ref: snap.Ref, vote: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].vote, out[j].vote
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func votesOf(snaps []voteSnapshot) []*models.Vote {
	votes := make([]*models.Vote, 0, len(snaps))
	for _, s := range snaps {
		votes = append(votes, s.vote)
	}
	return votes
}

func (r *voteRepository) ListByMatch(ctx context.Context, scope models.BracketScope, matchID string) ([]*models.Vote, error) {
	snaps, err := r.listSnapshots(ctx, scope, matchID, "")
	if err != nil {
		return nil, err
	}
	return votesOf(snaps), nil
}

func (r *voteRepository) ListByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) ([]*models.Vote, error) {
	snaps, err := r.listSnapshots(ctx, scope, matchID, classID)
	if err != nil {
		return nil, err
	}
	return votesOf(snaps), nil
}

func (r *voteRepository) ListByScope(ctx context.Context, scope models.BracketScope) ([]*models.Vote, error) {
	snaps, err := r.listSnapshots(ctx, scope, "", "")
	if err != nil {
		return nil, err
	}
	return votesOf(snaps), nil
}

func (r *voteRepository) UpdateVotedFor(ctx context.Context, id, votedForID string) error {
	err := r.sess.update(ctx, r.col().Doc(id), []firestore.Update{{Path: "votedForId", Value: votedForID}})
	if err != nil {
		return mapNotFound(err, repositories.ErrVoteNotFound)
	}
	return nil
}

func (r *voteRepository) deleteAll(ctx context.Context, snaps []voteSnapshot) (int, error) {
	for _, s := range snaps {
		if err := r.sess.delete(ctx, s.ref); err != nil {
			return 0, fmt.Errorf("failed to delete vote %s: %w", s.vote.ID, err)
		}
	}
	return len(snaps), nil
}

func (r *voteRepository) DeleteByMatchAndClass(ctx context.Context, scope models.BracketScope, matchID, classID string) (int, error) {
	snaps, err := r.listSnapshots(ctx, scope, matchID, classID)
	if err != nil {
		return 0, err
	}
	return r.deleteAll(ctx, snaps)
}

func (r *voteRepository) DeleteByMatch(ctx context.Context, scope models.BracketScope, matchID string) (int, error) {
	snaps, err := r.listSnapshots(ctx, scope, matchID, "")
	if err != nil {
		return 0, err
	}
	return r.deleteAll(ctx, snaps)
}

func (r *voteRepository) DeleteByScope(ctx context.Context, scope models.BracketScope) (int, error) {
	snaps, err := r.listSnapshots(ctx, scope, "", "")
	if err != nil {
		return 0, err
	}
	return r.deleteAll(ctx, snaps)
}

func (r *voteRepository) AssignLegacyToBracket(ctx context.Context, bracketID string) (int, error) {
	snaps, err := r.listSnapshots(ctx, models.LegacyScope(), "", "")
	if err != nil {
		return 0, err
	}
	for _, s := range snaps {
		if err := r.sess.update(ctx, s.ref, []firestore.Update{{Path: bracketIDField, Value: bracketID}}); err != nil {
			return 0, fmt.Errorf("failed to stamp vote %s: %w", s.vote.ID, err)
		}
	}
	return len(snaps), nil
}

type bracketRepository struct {
	sess *session
}

func (r *bracketRepository) col() *firestore.CollectionRef {
	return r.sess.collection(bracketsCollection)
}

func (r *bracketRepository) Create(ctx context.Context, bracket *models.Bracket) error {
	if bracket.ID == "" {
		bracket.ID = uuid.NewString()
	}
	if bracket.CreatedAt.IsZero() {
		bracket.CreatedAt = time.Now().UTC()
	}
	doc := bracketDoc{Name: bracket.Name, IsActive: bracket.IsActive, CreatedAt: bracket.CreatedAt}
	if err := r.sess.create(ctx, r.col().Doc(bracket.ID), doc); err != nil {
		return fmt.Errorf("failed to create bracket %q: %w", bracket.Name, err)
	}
	return nil
}

func (r *bracketRepository) GetByID(ctx context.Context, id string) (*models.Bracket, error) {
	snap, err := r.sess.get(ctx, r.col().Doc(id))
	if err != nil {
		return nil, mapNotFound(err, repositories.ErrBracketNotFound)
	}
	var doc bracketDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode bracket %s: %w", id, err)
	}
	return doc.toModel(snap.Ref.ID), nil
}

func (r *bracketRepository) List(ctx context.Context) ([]*models.Bracket, error) {
	snaps, err := r.sess.query(ctx, r.col().Query)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets: %w", err)
	}
	brackets := make([]*models.Bracket, 0, len(snaps))
	for _, snap := range snaps {
		var doc bracketDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode bracket %s: %w", snap.Ref.ID, err)
		}
		brackets = append(brackets, doc.toModel(snap.Ref.ID))
	}
	sort.Slice(brackets, func(i, j int) bool {
		if !brackets[i].CreatedAt.Equal(brackets[j].CreatedAt) {
			return brackets[i].CreatedAt.Before(brackets[j].CreatedAt)
		}
		return brackets[i].ID < brackets[j].ID
	})
	return brackets, nil
}

func (r *bracketRepository) GetActive(ctx context.Context) (*models.Bracket, error) {
	snaps, err := r.sess.query(ctx, r.col().Where("isActive", "==", true).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to query active bracket: %w", err)
	}
	if len(snaps) == 0 {
		return nil, repositories.ErrBracketNotFound
	}
	var doc bracketDoc
	if err := snaps[0].DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode bracket %s: %w", snaps[0].Ref.ID, err)
	}
	return doc.toModel(snaps[0].Ref.ID), nil
}

// SetActive учитывает сетку, созданную в этой же транзакции: чтения в
// транзакции её ещё не видят.
func (r *bracketRepository) SetActive(ctx context.Context, id string) error {
	brackets, err := r.List(ctx)
	if err != nil {
		return err
	}

	found := false
	for _, b := range brackets {
		if b.ID == id {
			found = true
		}
	}
	if !found {
		ref := r.col().Doc(id)
		data, ok := r.sess.pendingData(ref)
		doc, isBracket := data.(bracketDoc)
		if !ok || !isBracket {
			return repositories.ErrBracketNotFound
		}
		doc.IsActive = true
		if err := r.sess.set(ctx, ref, doc); err != nil {
			return fmt.Errorf("failed to activate bracket %s: %w", id, err)
		}
	}

	for _, b := range brackets {
		active := b.ID == id
		if b.IsActive == active {
			continue
		}
		if err := r.sess.update(ctx, r.col().Doc(b.ID), []firestore.Update{{Path: "isActive", Value: active}}); err != nil {
			return fmt.Errorf("failed to update bracket %s: %w", b.ID, err)
		}
	}
	return nil
}

func (r *bracketRepository) Count(ctx context.Context) (int, error) {
	brackets, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(brackets), nil
}
