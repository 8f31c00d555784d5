package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	GatewayConfig
	StoreConfig
	UploadConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Gateway
	Store
	Upload
}

func New() Config {
	return mainConfig{}
}

// Load reads the given .env files into the process environment before
// returning the config. Files that do not exist are skipped and variables
// already set in the environment win.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return New(), nil
}
