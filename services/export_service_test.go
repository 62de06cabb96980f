package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/song-bracket/models"
)

func TestExportKey(t *testing.T) {
	assert.Equal(t, "exports/spring-cup-2025/b1.json", ExportKey("Spring Cup 2025", models.ScopeFor("b1")))
	assert.Equal(t, "exports/legacy/legacy.json", ExportKey("legacy", models.LegacyScope()))
	assert.Equal(t, "exports/bracket/b2.json", ExportKey("!!!", models.ScopeFor("b2")))
}

func TestExport_UploadsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bracket, err := env.admin.CreateBracket(ctx, BracketInput{Name: "Finals"})
	require.NoError(t, err)
	scope := bracket.Scope()
	env.addSongs(t, scope, 2)
	env.generate(t, scope, 2)

	res, err := env.exports.Export(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "exports/finals/"+bracket.ID+".json", res.Key)
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)
	assert.Equal(t, testNow, res.ExportedAt)

	var snapshot struct {
		Name    string `json:"name"`
		Bracket struct {
			Rounds []struct {
				Round int `json:"round"`
			} `json:"rounds"`
		} `json:"bracket"`
	}
	require.NoError(t, json.Unmarshal(env.uploader.objects[res.Key], &snapshot))
	assert.Equal(t, "Finals", snapshot.Name)
	assert.Len(t, snapshot.Bracket.Rounds, 1)

	require.NoError(t, env.exports.Remove(ctx, scope))
	assert.NotContains(t, env.uploader.objects, res.Key)
}

func TestExport_Disabled(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.DiscardHandler)
	exports := NewExportService(nil, env.views, env.admin, logger, fixedClock)

	_, err := exports.Export(context.Background(), models.LegacyScope())
	assert.ErrorIs(t, err, ErrExportDisabled)
	assert.ErrorIs(t, exports.Remove(context.Background(), models.LegacyScope()), ErrExportDisabled)
}

func TestGenerateBracket_RemovesStaleExport(t *testing.T) {
	env := newTestEnv(t)
	scope := models.LegacyScope()
	env.addSongs(t, scope, 2)
	env.generate(t, scope, 2)

	assert.Equal(t, []string{"exports/legacy/legacy.json"}, env.uploader.deleted)
}
