package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 10, cfg.PostRateLimit)
	assert.Equal(t, 10*time.Minute, cfg.PostRateWindow)
	assert.Equal(t, 30, cfg.CommentRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.CommentRateWindow)
	assert.Equal(t, 15*time.Minute, cfg.ChallengeRefreshInterval)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("RATE_LIMIT_POSTS", "3")
	t.Setenv("CHALLENGE_REFRESH_INTERVAL", "1m")
	t.Setenv("TIMEZONE", "Europe/Berlin")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 3, cfg.PostRateLimit)
	assert.Equal(t, time.Minute, cfg.ChallengeRefreshInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"driver":   {"DB_DRIVER", "mongo"},
		"int":      {"RATE_LIMIT_COMMENTS", "many"},
		"duration": {"RATE_LIMIT_POSTS_WINDOW", "-1s"},
		"timezone": {"TIMEZONE", "Mars/Olympus"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
