package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "JWT_ALGORITHM", "ACCESS_TOKEN_EXPIRE_MINUTES", "REFRESH_TOKEN_EXPIRE_DAYS", "MONGO_DATABASE", "INGEST_TIMEOUT_SEC", "MINIO_LINK_TTL_MIN"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "fintech_db", cfg.Mongo.Database)
	assert.Equal(t, 30*time.Second, cfg.Ingest.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.MinIO.LinkTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			Database: DatabaseConfig{Driver: DriverPostgres},
			Auth:     AuthConfig{Secret: "k", Algorithm: "HS256", AccessTTL: time.Minute, RefreshTTL: time.Hour},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Auth.Secret = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.Auth.Algorithm = "RS256"
	assert.Error(t, c.Validate())

	c = valid()
	c.Auth.AccessTTL = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Database.Driver = "sqlite"
	assert.Error(t, c.Validate())

	c = valid()
	c.Database.Driver = DriverMongo
	assert.NoError(t, c.Validate())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
