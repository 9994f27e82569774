package config

import (
	"fmt"
	"os"
	"strings"
)

// OAuthProvider holds the credentials for a single social login provider.
// A provider with missing credentials is simply not registered at startup.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
}

func (p OAuthProvider) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// Config is the explicit startup configuration passed into the router and
// service constructors. Nothing reads the environment after Load returns,
// except the JWT helpers which stay env-keyed for test overrides.
type Config struct {
	ServerPort  string
	MongoURI    string
	MongoDBName string

	JWTSecret     string
	SessionSecret string

	ServerURL      string
	ClientURL      string
	AllowedOrigins []string

	Google   OAuthProvider
	GitHub   OAuthProvider
	Facebook OAuthProvider

	FirebaseProjectID string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8800"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDBName: getEnv("MONGO_DB_NAME", "taskmanager"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: getEnv("SESSION_SECRET", os.Getenv("JWT_SECRET")),

		ServerURL: getEnv("SERVER_URL", "http://localhost:8800"),
		ClientURL: getEnv("CLIENT_URL", "http://localhost:5173"),

		Google: OAuthProvider{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		GitHub: OAuthProvider{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		},
		Facebook: OAuthProvider{
			ClientID:     os.Getenv("FACEBOOK_APP_ID"),
			ClientSecret: os.Getenv("FACEBOOK_APP_SECRET"),
		},

		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, strings.TrimSpace(origin))
		}
	} else {
		cfg.AllowedOrigins = []string{cfg.ClientURL}
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is not set in the environment variables")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set in the environment variables")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
