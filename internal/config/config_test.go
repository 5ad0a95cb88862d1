package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "JOB_EXPIRATION_INTERVAL", "ANTIFRAUD_MAX_ACTIVE", "ELASTICSEARCH_INDEX", "PIX_API_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Jobs.ExpirationInterval)
	assert.Equal(t, 5, cfg.Antifraud.MaxActiveReservations)
	assert.Equal(t, "rifas", cfg.Elasticsearch.Index)
	assert.False(t, cfg.Pix.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("NATS_ENABLED", "false")
	t.Setenv("JOB_EXPIRATION_INTERVAL", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.NATSEnabled)
	assert.Equal(t, 5*time.Second, cfg.Jobs.ExpirationInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
	assert.Equal(t, 5432, cfg.Database.Port)
}
