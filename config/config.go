package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var loadOnce sync.Once

func loadDotEnv() {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			// A missing .env file is fine in deployments that inject
			// real environment variables.
			log.WithError(err).Debug("no .env file loaded")
		}
	})
}

// Config returns a required environment variable and exits if it is unset.
func Config(envVar string) string {
	loadDotEnv()

	envVarValue := os.Getenv(envVar)
	if envVarValue == "" {
		log.Fatalf("%s not set", envVar)
	}

	return envVarValue
}

// ConfigOr returns an optional environment variable with a fallback.
func ConfigOr(envVar, def string) string {
	loadDotEnv()

	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return def
}

// ConfigInt parses an optional integer environment variable.
func ConfigInt(envVar string, def int) int {
	if v := ConfigOr(envVar, ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		log.Warnf("invalid integer for %s, using default %d", envVar, def)
	}
	return def
}

// ConfigDuration parses an optional duration environment variable ("30s", "5m").
func ConfigDuration(envVar string, def time.Duration) time.Duration {
	if v := ConfigOr(envVar, ""); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
		log.Warnf("invalid duration for %s, using default %s", envVar, def)
	}
	return def
}
