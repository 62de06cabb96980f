package storage

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"host only", "https://cdn.example.com", "exports/spring-cup/b1.json", "https://cdn.example.com/exports/spring-cup/b1.json"},
		{"trailing slash", "https://cdn.example.com/", "exports/bracket/legacy.json", "https://cdn.example.com/exports/bracket/legacy.json"},
		{"base path", "https://cdn.example.com/media", "/exports/a/b.json", "https://cdn.example.com/media/exports/a/b.json"},
		{"empty key", "https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := url.Parse(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, publicURL(base, tt.key))
		})
	}
}

func TestNewCloudflareR2UploaderValidation(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"})
	require.Error(t, err)

	_, err = NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{
		AccountID:       "acc",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "brackets",
		PublicBaseURL:   "not a url",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public base URL")
}
