package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	ServerURL   string
	LobbyCode   string
	UserID      string
	UserName    string
	IsHost      bool
	Sound       bool
	TurnSeconds int
	HTTPAddr    string
	LogLevel    string
	AuthToken   string
}

func Default() Config {
	return Config{
		ServerURL:   "ws://localhost:8080/ws",
		Sound:       true,
		TurnSeconds: 12,
		HTTPAddr:    "127.0.0.1:8090",
		LogLevel:    "info",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("HANGMAN_WS_URL"); raw != "" {
		cfg.ServerURL = raw
	}
	if raw := os.Getenv("HANGMAN_LOBBY_CODE"); raw != "" {
		cfg.LobbyCode = raw
	}
	if raw := os.Getenv("HANGMAN_USER_ID"); raw != "" {
		cfg.UserID = raw
	}
	if raw := os.Getenv("HANGMAN_USER_NAME"); raw != "" {
		cfg.UserName = raw
	}
	if raw := os.Getenv("HANGMAN_IS_HOST"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.IsHost = value
		}
	}
	if raw := os.Getenv("HANGMAN_SOUND"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Sound = value
		}
	}
	if raw := os.Getenv("HANGMAN_TURN_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TurnSeconds = value
		}
	}
	if raw := os.Getenv("HANGMAN_HTTP_ADDR"); raw != "" {
		cfg.HTTPAddr = raw
	}
	if raw := os.Getenv("HANGMAN_LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("HANGMAN_AUTH_TOKEN"); raw != "" {
		cfg.AuthToken = raw
	}
	return cfg
}
