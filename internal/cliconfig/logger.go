package cliconfig

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/bft-labs/tetherbooth/pkg/log"
)

// Logger returns the console logger used by the CLI.
func Logger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(log.ParseLevel(level)).With().Timestamp().Logger()
}

// LoadDotEnv loads environment variables from the given .env files, or from
// ./.env when none are given. Variables already set in the environment are
// kept. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if FileExists(p) {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
