// Package memstore - хранилище сущностей в памяти.
// Транзакция работает с копией состояния и подменяет его целиком при успехе,
// поэтому частичная запись невозможна. Используется в тестах и при STORE_DRIVER=memory.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories"
)

type matchKey struct {
	bracketID string
	id        string
}

type state struct {
	songs    map[string]models.Song
	classes  map[string]models.VoterGroup
	matches  map[matchKey]models.Match
	votes    map[string]models.Vote
	brackets map[string]models.Bracket
}

func newState() *state {
	return &state{
		songs:    map[string]models.Song{},
		classes:  map[string]models.VoterGroup{},
		matches:  map[matchKey]models.Match{},
		votes:    map[string]models.Vote{},
		brackets: map[string]models.Bracket{},
	}
}

func (st *state) clone() *state {
	cp := &state{
		songs:    make(map[string]models.Song, len(st.songs)),
		classes:  make(map[string]models.VoterGroup, len(st.classes)),
		matches:  make(map[matchKey]models.Match, len(st.matches)),
		votes:    make(map[string]models.Vote, len(st.votes)),
		brackets: make(map[string]models.Bracket, len(st.brackets)),
	}
	for k, v := range st.songs {
		cp.songs[k] = cloneSong(v)
	}
	for k, v := range st.classes {
		cp.classes[k] = v
	}
	for k, v := range st.matches {
		cp.matches[k] = cloneMatch(v)
	}
	for k, v := range st.votes {
		cp.votes[k] = v
	}
	for k, v := range st.brackets {
		cp.brackets[k] = v
	}
	return cp
}

// accessor скрывает, нужна ли блокировка: вне транзакции берётся мьютекс
// хранилища, внутри транзакции он уже удерживается WithinTx.
type accessor interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

type lockedAccessor struct {
	store *Store
}

func (a lockedAccessor) read(fn func(st *state) error) error {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return fn(a.store.state)
}

func (a lockedAccessor) write(fn func(st *state) error) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.state)
}

type txAccessor struct {
	state *state
}

func (a txAccessor) read(fn func(st *state) error) error  { return fn(a.state) }
func (a txAccessor) write(fn func(st *state) error) error { return fn(a.state) }

type Store struct {
	mu    sync.RWMutex
	state *state
	nowFn func() time.Time
}

func New() *Store {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

func NewWithClock(now func() time.Time) *Store {
	return &Store{state: newState(), nowFn: now}
}

func (s *Store) reposFor(acc accessor) repositories.Repositories {
	return repositories.Repositories{
		Songs:    &songRepository{acc: acc, now: s.nowFn},
		Classes:  &classRepository{acc: acc, now: s.nowFn},
		Matches:  &matchRepository{acc: acc},
		Votes:    &voteRepository{acc: acc, now: s.nowFn},
		Brackets: &bracketRepository{acc: acc, now: s.nowFn},
	}
}

func (s *Store) Repos() repositories.Repositories {
	return s.reposFor(lockedAccessor{store: s})
}

// WithinTx сериализует транзакции: fn видит собственные записи,
// а результат становится видимым только после успешного завершения.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repositories.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(ctx, s.reposFor(txAccessor{state: working})); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSong(s models.Song) models.Song {
	s.YouTubeURL = cloneString(s.YouTubeURL)
	return s
}

func cloneMatch(m models.Match) models.Match {
	m.Song1ID = cloneString(m.Song1ID)
	m.Song2ID = cloneString(m.Song2ID)
	m.WinnerID = cloneString(m.WinnerID)
	m.NextMatchID = cloneString(m.NextMatchID)
	m.Day = cloneString(m.Day)
	if m.NextMatchSlot != nil {
		slot := *m.NextMatchSlot
		m.NextMatchSlot = &slot
	}
	return m
}

func inScope(bracketID string, scope models.BracketScope) bool {
	return bracketID == scope.BracketID
}
