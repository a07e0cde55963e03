// Package config resolves run settings from defaults, .env files and
// SIMFINDER_* environment variables. Command-line flags are applied on top
// by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"simfinder/imageprocessor"
	"simfinder/utils"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvWorkers  = "SIMFINDER_WORKERS"
	EnvHashSize = "SIMFINDER_HASH_SIZE"
	EnvCache    = "SIMFINDER_CACHE"
	EnvLogFile  = "SIMFINDER_LOGFILE"
	EnvDebug    = "SIMFINDER_DEBUG"
	EnvMinScore = "SIMFINDER_MIN_SCORE"
)

// Config holds everything a run needs besides the source and sample paths
type Config struct {
	Output    string
	Password  string
	Workers   int
	HashSize  int
	CachePath string
	Limit     int
	MinScore  float64
	Quiet     bool
	Debug     bool
	LogFile   string
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		HashSize: imageprocessor.DefaultHashSize,
	}
}

// Load overlays values from the given .env files and then the process
// environment onto the defaults. Missing .env files are ignored; the
// process environment wins over file values.
func Load(envFiles ...string) (Config, error) {
	fileEnv := make(map[string]string)
	for _, path := range envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
		}
		for k, v := range values {
			if _, seen := fileEnv[k]; !seen {
				fileEnv[k] = v
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	return fromLookup(lookup)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s: invalid worker count %q", EnvWorkers, v)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvHashSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid hash size %q", EnvHashSize, v)
		}
		cfg.HashSize = n
	}
	if v, ok := lookup(EnvCache); ok {
		cfg.CachePath = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		cfg.LogFile = v
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid boolean %q", EnvDebug, v)
		}
		cfg.Debug = b
	}
	if v, ok := lookup(EnvMinScore); ok && v != "" {
		s, err := utils.ParseScore(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMinScore, err)
		}
		cfg.MinScore = s
	}

	return cfg, nil
}

// Validate checks settings that flags or the environment may have broken
func (c Config) Validate() error {
	if _, err := imageprocessor.NewHasher(c.HashSize); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if c.MinScore < 0 || c.MinScore > 100 {
		return fmt.Errorf("min score must be between 0 and 100, got %v", c.MinScore)
	}
	return nil
}
