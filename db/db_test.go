package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(migrations, "migrations/00001_init.sql")
	require.NoError(t, err)
	sql := string(body)

	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "-- +goose Down")
	// Имена индексов используются репозиториями при разборе ошибок уникальности.
	assert.Contains(t, sql, "votes_scope_match_class_key")
	assert.Contains(t, sql, "matches_scope_id_key")
}
