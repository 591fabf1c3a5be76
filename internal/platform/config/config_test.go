// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tagtree/internal/platform/config"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := config.Parse()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "./data/migrations", cfg.MigrationPath)
	assert.Equal(t, 8, cfg.MoveRetryLimit)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestParse_BackendRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"postgres_without_url", map[string]string{"STORE_BACKEND": "postgres"}, true},
		{"postgres_with_url", map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": "postgres://localhost/tagtree"}, false},
		{"redis_without_url", map[string]string{"STORE_BACKEND": "redis"}, true},
		{"redis_with_url", map[string]string{"STORE_BACKEND": "redis", "REDIS_URL": "redis://localhost:6379/0"}, false},
		{"unknown_backend", map[string]string{"STORE_BACKEND": "sqlite"}, true},
		{"zero_retries", map[string]string{"STORE_BACKEND": "memory", "MOVE_RETRY_LIMIT": "0"}, true},
		{"malformed_retries", map[string]string{"STORE_BACKEND": "memory", "MOVE_RETRY_LIMIT": "many"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("REDIS_URL", "")
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := config.Parse()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_AllowsOrigin(t *testing.T) {
	cfg := &config.Config{ExtraOrigins: "https://a.example, https://b.example,,"}

	assert.True(t, cfg.AllowsOrigin("https://a.example"))
	assert.True(t, cfg.AllowsOrigin("https://b.example"))
	assert.False(t, cfg.AllowsOrigin("https://c.example"))
	assert.False(t, cfg.AllowsOrigin(""))
}
