package handlers_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/brackets"
	"github.com/Dosada05/song-bracket/handlers"
	"github.com/Dosada05/song-bracket/metrics"
	"github.com/Dosada05/song-bracket/middleware"
	"github.com/Dosada05/song-bracket/repositories/memstore"
	"github.com/Dosada05/song-bracket/routes"
	"github.com/Dosada05/song-bracket/services"
)

const adminPassword = "musicmom"

type testServer struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func newTestServer(t *testing.T, configure ...func(*routes.Options)) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := memstore.New()

	auth, err := services.NewAuthService(services.AuthConfig{
		AdminPassword: adminPassword,
		SessionSecret: "handler-test-secret",
		SessionTTL:    time.Hour,
	}, nil)
	require.NoError(t, err)

	admin := services.NewBracketAdminService(store, logger, nil)
	views := services.NewViewService(store, logger)
	exports := services.NewExportService(nil, views, admin, logger, nil)
	songs := services.NewSongService(store, logger, nil)
	classes := services.NewClassService(store, logger, nil)
	bracket := services.NewBracketService(store, brackets.NewSingleEliminationGenerator(), exports, m, logger)
	matches := services.NewMatchService(store, exports, m, logger, nil)
	votes := services.NewVoteService(store, m, logger, nil)

	opts := routes.Options{
		Sessions:       auth,
		VoteLimiter:    middleware.NewMemoryLimiter(1000, nil),
		Metrics:        m,
		Gatherer:       reg,
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         logger,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:    handlers.NewAuthHandler(auth, false),
		Songs:   handlers.NewSongHandler(songs, admin),
		Classes: handlers.NewClassHandler(classes),
		Bracket: handlers.NewBracketHandler(bracket, exports, admin),
		Admin:   handlers.NewBracketAdminHandler(admin),
		Matches: handlers.NewMatchHandler(matches, votes, admin),
		Votes:   handlers.NewVoteHandler(votes, admin),
		Views:   handlers.NewViewHandler(views, admin),
		Health:  handlers.NewHealthHandler(store),
	}, opts)

	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login() {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": adminPassword})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AdminCookieName {
			s.cookie = c
		}
	}
	require.NotNil(s.t, s.cookie)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// field достаёт вложенное строковое поле ответа, например field(body, "song", "id").
func field(t *testing.T, body map[string]interface{}, path ...string) string {
	t.Helper()
	var cur interface{} = body
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		require.True(t, ok, "expected object at %q", key)
		cur = obj[key]
	}
	s, ok := cur.(string)
	require.True(t, ok, "expected string at %v", path)
	return s
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestAdminRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/v1/admin/songs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "invalid password")

	srv.login()
	rec = srv.do(http.MethodGet, "/api/v1/admin/songs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/admin/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AdminCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestVotingFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.login()

	rec := srv.do(http.MethodPost, "/api/v1/admin/classes", map[string]string{"name": "7A"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	classID := field(t, decode(t, rec), "class", "id")

	songIDs := make([]string, 0, 4)
	for _, title := range []string{"S1", "S2", "S3", "S4"} {
		rec = srv.do(http.MethodPost, "/api/v1/admin/songs", map[string]string{"title": title, "artist": "Band"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		songIDs = append(songIDs, field(t, decode(t, rec), "song", "id"))
	}

	rec = srv.do(http.MethodPost, "/api/v1/admin/bracket/generate", map[string]int{"size": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Голос за закрытый матч отклоняется.
	vote := map[string]string{"match_id": "r1-m1", "class_id": classID, "voted_for_id": songIDs[0]}
	rec = srv.do(http.MethodPost, "/api/v1/votes", vote)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/admin/matches/r1-m1/open", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "open", field(t, decode(t, rec), "match", "status"))

	rec = srv.do(http.MethodPost, "/api/v1/votes", vote)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodPost, "/api/v1/votes", vote)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(http.MethodGet, "/api/v1/matches/r1-m1/tally", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tally := decode(t, rec)["tally"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{songIDs[0]: 1.0, songIDs[1]: 0.0}, tally)

	rec = srv.do(http.MethodGet, "/api/v1/voting", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	voting := decode(t, rec)
	assert.Len(t, voting["open_matches"], 1)
	assert.Len(t, voting["votes"], 1)

	rec = srv.do(http.MethodDelete, "/api/v1/votes?match_id=r1-m1&class_id="+classID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode(t, rec)["removed"])

	rec = srv.do(http.MethodPost, "/api/v1/admin/matches/r1-m1/resolve", map[string]string{"winner_id": songIDs[2]})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, "/api/v1/admin/matches/r1-m1/resolve", map[string]string{"winner_id": songIDs[1]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodGet, "/api/v1/brackets/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	rounds := view["rounds"].([]interface{})
	require.Len(t, rounds, 2)
	final := rounds[1].(map[string]interface{})["matches"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, songIDs[1], final["song1_id"])
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	srv.login()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"unknown match", http.MethodGet, "/api/v1/matches/r9-m9/tally", nil, http.StatusNotFound},
		{"unknown bracket", http.MethodGet, "/api/v1/voting?bracket_id=nope", nil, http.StatusNotFound},
		{"invalid size", http.MethodPost, "/api/v1/admin/bracket/generate", map[string]int{"size": 3}, http.StatusBadRequest},
		{"not enough songs", http.MethodPost, "/api/v1/admin/bracket/generate", map[string]int{"size": 8}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/admin/classes", map[string]string{"title": "x"}, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/v1/admin/brackets", nil, http.StatusBadRequest},
		{"missing vote fields", http.MethodPost, "/api/v1/votes", map[string]string{}, http.StatusBadRequest},
		{"bad direction", http.MethodPost, "/api/v1/admin/songs/x/move", map[string]string{"direction": "left"}, http.StatusBadRequest},
		{"bad round", http.MethodGet, "/api/v1/admin/matches?round=zero", nil, http.StatusBadRequest},
		{"export disabled", http.MethodPost, "/api/v1/admin/brackets/export", nil, http.StatusConflict},
		{"unknown route", http.MethodGet, "/api/v1/nothing", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec), "error")
		})
	}
}

func TestBracketRecords(t *testing.T) {
	srv := newTestServer(t)
	srv.login()

	rec := srv.do(http.MethodPost, "/api/v1/admin/brackets", map[string]string{"name": "Spring"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	springID := field(t, decode(t, rec), "bracket", "id")

	rec = srv.do(http.MethodPost, "/api/v1/admin/brackets", map[string]string{"name": "Autumn"})
	require.Equal(t, http.StatusCreated, rec.Code)
	autumnID := field(t, decode(t, rec), "bracket", "id")

	rec = srv.do(http.MethodGet, "/api/v1/brackets/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, springID, field(t, decode(t, rec), "scope", "bracket_id"))

	rec = srv.do(http.MethodPost, "/api/v1/admin/brackets/"+autumnID+"/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodGet, "/api/v1/brackets/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, autumnID, field(t, decode(t, rec), "scope", "bracket_id"))

	rec = srv.do(http.MethodGet, "/api/v1/brackets/current?bracket_id="+springID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, springID, field(t, decode(t, rec), "scope", "bracket_id"))

	rec = srv.do(http.MethodPost, "/api/v1/admin/brackets/migrate", map[string]string{"name": "Legacy"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodGet, "/api/v1/admin/brackets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["brackets"], 3)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(http.MethodGet, "/healthz", nil)

	rec := srv.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "song_bracket_http_requests_total")
}

func TestVoteRateLimit_ForwardedHeaders(t *testing.T) {
	vote := func(srv *testServer, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/votes", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("ignored without trusted proxy", func(t *testing.T) {
		srv := newTestServer(t, func(o *routes.Options) {
			o.VoteLimiter = middleware.NewMemoryLimiter(1, nil)
		})
		assert.NotEqual(t, http.StatusTooManyRequests, vote(srv, "198.51.100.1"))
		assert.Equal(t, http.StatusTooManyRequests, vote(srv, "198.51.100.2"))
	})

	t.Run("honoured behind trusted proxy", func(t *testing.T) {
		srv := newTestServer(t, func(o *routes.Options) {
			o.VoteLimiter = middleware.NewMemoryLimiter(1, nil)
			o.TrustProxy = true
		})
		assert.NotEqual(t, http.StatusTooManyRequests, vote(srv, "198.51.100.1"))
		assert.NotEqual(t, http.StatusTooManyRequests, vote(srv, "198.51.100.2"))
		assert.Equal(t, http.StatusTooManyRequests, vote(srv, "198.51.100.2"))
	})
}
