package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetForTest clears key for the duration of the test and restores it afterwards.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestGetters(t *testing.T) {
	t.Setenv("TM_STRING", "value")
	t.Setenv("TM_INT", " 42 ")
	t.Setenv("TM_BAD_INT", "forty")
	t.Setenv("TM_BOOL", "false")
	unsetForTest(t, "TM_MISSING")

	assert.Equal(t, "value", GetString("TM_STRING", "fallback"))
	assert.Equal(t, "fallback", GetString("TM_MISSING", "fallback"))
	assert.Equal(t, 42, GetInt("TM_INT", 1))
	assert.Equal(t, 1, GetInt("TM_BAD_INT", 1))
	assert.Equal(t, int64(42), GetInt64("TM_INT", 7))
	assert.False(t, GetBool("TM_BOOL", true))
	assert.True(t, GetBool("TM_MISSING", true))
}

func TestLoadAPIConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "CLIENT_ORIGIN", "DATABASE_URL", "JWT_SECRET", "TOKEN_TTL_HOURS", "MAX_BODY_BYTES", "STORAGE",
		"RATE_LIMIT_REGISTER_PER_MINUTE", "RATE_LIMIT_LOGIN_PER_MINUTE", "TRUST_PROXY_HEADERS"} {
		unsetForTest(t, key)
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := LoadAPIConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "http://localhost:5173", cfg.ClientOrigin)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 5, cfg.RateLimitRegister)
	assert.Equal(t, 12, cfg.RateLimitLogin)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadAPIConfigReadsEnvFile(t *testing.T) {
	unsetForTest(t, "PORT")
	unsetForTest(t, "CLIENT_ORIGIN")
	t.Setenv("JWT_SECRET", "from-environment")

	path := filepath.Join(t.TempDir(), ".env")
	contents := "PORT=9100\nCLIENT_ORIGIN=https://tasks.example.com\nJWT_SECRET=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("ENV_FILE", path)

	cfg, err := LoadAPIConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "https://tasks.example.com", cfg.ClientOrigin)
	assert.Equal(t, "from-environment", cfg.JWTSecret, "real environment must win over the env file")
}

func TestValidate(t *testing.T) {
	base := APIConfig{
		Storage:      StoragePostgres,
		DatabaseURL:  "postgres://localhost/db",
		JWTSecret:    "secret",
		TokenTTL:     time.Hour,
		MaxBodyBytes: 1024,
	}
	require.NoError(t, base.Validate())

	missingSecret := base
	missingSecret.JWTSecret = " "
	assert.Error(t, missingSecret.Validate())

	missingDB := base
	missingDB.DatabaseURL = ""
	assert.Error(t, missingDB.Validate())

	prodDefault := base
	prodDefault.Environment = "Production"
	prodDefault.JWTSecret = defaultJWTSecret
	assert.Error(t, prodDefault.Validate())

	memory := base
	memory.Storage = StorageMemory
	memory.DatabaseURL = ""
	assert.NoError(t, memory.Validate())

	memoryInProd := memory
	memoryInProd.Environment = "production"
	memoryInProd.JWTSecret = "rotated"
	assert.Error(t, memoryInProd.Validate())

	unknownStorage := base
	unknownStorage.Storage = "mongo"
	assert.Error(t, unknownStorage.Validate())

	noTTL := base
	noTTL.TokenTTL = 0
	assert.Error(t, noTTL.Validate())

	unlimitedLogin := base
	unlimitedLogin.RateLimitLogin = 0
	assert.NoError(t, unlimitedLogin.Validate())

	negativeLimit := base
	negativeLimit.RateLimitTaskWrite = -1
	assert.Error(t, negativeLimit.Validate())
}
