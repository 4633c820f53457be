package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// DefaultSubject is the NATS subject extracted transcripts are published on.
const DefaultSubject = "swarm.session.transcript.extracted"

type Config struct {
	ProjectsDir string
	LogLevel    string
	NatsURL     string
	NatsToken   string
	Subject     string
	DatabaseURL string
	Port        int
}

func Load() Config {
	return Config{
		ProjectsDir: ExpandHome(envStr("SESSIONSYNC_PROJECTS_DIR", "~/.claude/projects")),
		LogLevel:    envStr("LOG_LEVEL", "warn"),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		Subject:     envStr("SESSIONSYNC_SUBJECT", DefaultSubject),
		DatabaseURL: envStr("DATABASE_URL", ""),
		Port:        envInt("SESSIONSYNC_PORT", 8760),
	}
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
// The path is returned untouched when the home directory cannot be resolved.
func ExpandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
