// Package env loads run configuration from .env files and the environment.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultExchange = "xschema"
	DefaultQueue    = "xschema"
)

type Environment struct {
	// URI of the AMQP broker. Empty disables external signals over AMQP.
	URI      string
	Exchange string
	Queue    string
	// FiringLimit is 0 when unset.
	FiringLimit int
	Seed        int64
	HasSeed     bool
	// Report is the path of the CSV report, DB the path of the SQLite store.
	Report string
	DB     string
}

// Load reads the given .env files, or ./.env when none are given, then the
// environment. Variables already set in the environment win over the files.
// A missing default .env file is not an error.
func Load(logger *zap.Logger, files ...string) (*Environment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env: %w", err)
		}
		logger.Debug("no .env file")
	}
	environ := &Environment{
		URI:      os.Getenv("AMQP_URI"),
		Exchange: lookup("AMQP_EXCHANGE", DefaultExchange),
		Queue:    lookup("AMQP_QUEUE", DefaultQueue),
		Report:   os.Getenv("XSCHEMA_REPORT"),
		DB:       os.Getenv("XSCHEMA_DB"),
	}
	if limit := os.Getenv("XSCHEMA_FIRING_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("XSCHEMA_FIRING_LIMIT must be a positive integer, got %q", limit)
		}
		environ.FiringLimit = n
	}
	if seed := os.Getenv("XSCHEMA_SEED"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse XSCHEMA_SEED: %w", err)
		}
		environ.Seed, environ.HasSeed = n, true
	}
	logger.Debug("loaded environment",
		zap.String("exchange", environ.Exchange),
		zap.String("queue", environ.Queue),
		zap.Int("limit", environ.FiringLimit),
	)
	return environ, nil
}

func lookup(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
