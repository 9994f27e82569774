package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8800", cfg.ServerPort)
	assert.Equal(t, "taskmanager", cfg.MongoDBName)
	assert.Equal(t, "http://localhost:5173", cfg.ClientURL)
	// Session secret falls back to the JWT secret.
	assert.Equal(t, "test-secret", cfg.SessionSecret)
	// Default CORS origin is the client URL.
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadParsesOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
}

func TestOAuthProviderConfigured(t *testing.T) {
	assert.False(t, OAuthProvider{}.Configured())
	assert.False(t, OAuthProvider{ClientID: "id"}.Configured())
	assert.True(t, OAuthProvider{ClientID: "id", ClientSecret: "secret"}.Configured())
}

func TestLoadGatesOAuthProviders(t *testing.T) {
	setRequired(t)
	t.Setenv("GOOGLE_CLIENT_ID", "google-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "google-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Google.Configured())
	assert.False(t, cfg.GitHub.Configured())
	assert.False(t, cfg.Facebook.Configured())
}
