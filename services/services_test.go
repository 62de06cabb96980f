package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/brackets"
	"github.com/Dosada05/song-bracket/metrics"
	"github.com/Dosada05/song-bracket/models"
	"github.com/Dosada05/song-bracket/repositories/memstore"
	"github.com/Dosada05/song-bracket/storage"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (u *memoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type testEnv struct {
	store    *memstore.Store
	uploader *memoryUploader
	songs    SongService
	classes  ClassService
	bracket  BracketService
	matches  MatchService
	votes    VoteService
	admin    BracketAdminService
	views    ViewService
	exports  ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	m := metrics.New(prometheus.NewRegistry())
	store := memstore.NewWithClock(fixedClock)
	uploader := newMemoryUploader()

	admin := NewBracketAdminService(store, logger, fixedClock)
	views := NewViewService(store, logger)
	exports := NewExportService(uploader, views, admin, logger, fixedClock)

	return &testEnv{
		store:    store,
		uploader: uploader,
		songs:    NewSongService(store, logger, fixedClock),
		classes:  NewClassService(store, logger, fixedClock),
		bracket:  NewBracketService(store, brackets.NewSingleEliminationGenerator(), exports, m, logger),
		matches:  NewMatchService(store, exports, m, logger, fixedClock),
		votes:    NewVoteService(store, m, logger, fixedClock),
		admin:    admin,
		views:    views,
		exports:  exports,
	}
}

// addSongs добавляет песни S1..Sn и возвращает их в порядке добавления.
func (e *testEnv) addSongs(t *testing.T, scope models.BracketScope, n int) []*models.Song {
	t.Helper()
	songs := make([]*models.Song, 0, n)
	for i := 1; i <= n; i++ {
		song, err := e.songs.AddSong(context.Background(), scope, CreateSongInput{
			Title:  fmt.Sprintf("S%d", i),
			Artist: fmt.Sprintf("Artist %d", i),
		})
		require.NoError(t, err)
		songs = append(songs, song)
	}
	return songs
}

func (e *testEnv) addClass(t *testing.T, name string) *models.VoterGroup {
	t.Helper()
	class, err := e.classes.AddClass(context.Background(), ClassInput{Name: name})
	require.NoError(t, err)
	return class
}

func (e *testEnv) generate(t *testing.T, scope models.BracketScope, size int) map[string]*models.Match {
	t.Helper()
	res, err := e.bracket.GenerateBracket(context.Background(), scope, size)
	require.NoError(t, err)
	byID := make(map[string]*models.Match, len(res.Matches))
	for _, m := range res.Matches {
		byID[m.ID] = m
	}
	return byID
}

func (e *testEnv) match(t *testing.T, scope models.BracketScope, id string) *models.Match {
	t.Helper()
	m, err := e.matches.GetMatch(context.Background(), scope, id)
	require.NoError(t, err)
	return m
}
