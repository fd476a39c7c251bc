package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodcraft-crm/leadflow-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 2*time.Minute, cfg.Workflow.ConfirmTTL())
	assert.Equal(t, time.Minute, cfg.Workflow.SubmitTimeout())
	assert.Equal(t, 10*time.Second, cfg.Workflow.FactTimeout())
	assert.Equal(t, 30*time.Second, cfg.Workflow.ReadinessCacheTTL())
	assert.Equal(t, "0 0 8 * * *", cfg.Jobs.HoldReminderCron)
	assert.Equal(t, "@every 1m", cfg.Jobs.IntentSweepCron)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 5*time.Minute, cfg.Redis.DefaultTTLDuration())
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-Vendor-ID")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("WORKFLOW_CONFIRMTTLSECONDS", "30")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("DATAWAREHOUSE_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Workflow.ConfirmTTL())
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.True(t, cfg.DataWarehouse.Enabled)
}

func TestConnectionString(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "leadflow", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=leadflow sslmode=disable", d.ConnectionString())
}
