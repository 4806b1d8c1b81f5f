package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_Defaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "clinical_cds", cfg.Database.Database)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Enrichment.Enabled)
	assert.Equal(t, "sqlite", cfg.Feedback.Backend)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestManager_Validate(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	// Defaults are valid
	assert.NoError(t, manager.Validate())

	// Invalid port
	manager.config.Server.Port = 0
	assert.Error(t, manager.Validate())
	manager.config.Server.Port = 8080

	// Database enabled but incomplete
	manager.config.Database.Enabled = true
	manager.config.Database.Host = ""
	assert.Error(t, manager.Validate())
	manager.config.Database.Host = "localhost"
	assert.NoError(t, manager.Validate())
	manager.config.Database.Enabled = false

	// Invalid feedback backend
	manager.config.Feedback.Backend = "mysql"
	assert.Error(t, manager.Validate())
	manager.config.Feedback.Backend = "sqlite"

	// Postgres feedback requires database
	manager.config.Feedback.Backend = "postgres"
	assert.Error(t, manager.Validate())
	manager.config.Feedback.Backend = "sqlite"

	// Invalid log level
	manager.config.Logging.Level = "verbose"
	assert.Error(t, manager.Validate())
	manager.config.Logging.Level = "info"
	assert.NoError(t, manager.Validate())
}

func TestManager_ConnectionStrings(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	dsn := manager.GetDatabaseConnectionString()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=clinical_cds")

	url := manager.GetDatabaseURL()
	assert.Contains(t, url, "postgres://")
	assert.Contains(t, url, "localhost:5432/clinical_cds")
}
