package config

import (
	"os"
	"path/filepath"
	"time"
)

type StoreConfig interface {
	GetSessionStore() string
	GetSessionFile() string
	GetSessionKey() string
	GetRedisAddr() string
	GetRedisPrefix() string
	GetSessionID() string
	GetSessionTTL() time.Duration
}

const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetSessionStore() string {
	return GetEnv("CURNCE_SESSION_STORE", StoreFile)
}

func (Store) GetSessionFile() string {
	if file := os.Getenv("CURNCE_SESSION_FILE"); file != "" {
		return file
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".curnce", "session.json")
	}
	return filepath.Join(home, ".curnce", "session.json")
}

// GetSessionKey is an optional passphrase. When set the file store encrypts
// tokens at rest.
func (Store) GetSessionKey() string {
	return GetEnv("CURNCE_SESSION_KEY", "")
}

func (Store) GetRedisAddr() string {
	return GetEnv("CURNCE_REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPrefix() string {
	return GetEnv("CURNCE_REDIS_PREFIX", "curnce:session")
}

// GetSessionID names the Redis hash holding this client's session. Empty means
// a new ID is generated.
func (Store) GetSessionID() string {
	return GetEnv("CURNCE_SESSION_ID", "")
}

// GetSessionTTL is how long an idle Redis session survives. Zero keeps it
// until logout.
func (Store) GetSessionTTL() time.Duration {
	return getEnvDuration("CURNCE_SESSION_TTL", 30*24*time.Hour)
}
