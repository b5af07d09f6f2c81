package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"goampute/domain/calibration"
	"goampute/internal"
	"goampute/internal/amputation"
	"goampute/internal/errors"
	"goampute/ports"
)

// Config represents the complete application configuration
type Config struct {
	Engine   EngineConfig
	Seed     uint64
	Seeded   bool // AMPUTE_SEED was set
	LogLevel string
}

// EngineConfig holds amputation engine settings
type EngineConfig struct {
	Tolerance   float64
	MaxIter     int
	LowerRange  float64
	UpperRange  float64
	Standardize bool
	Calibrator  string
	Target      string
	Partition   string
}

// LoadEnvFile loads variables from .env files into the environment. Missing
// files are ignored; with no paths it reads ./.env.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("load %s: %w", path, err))
		}
	}
	return nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	search := calibration.DefaultSearch()
	config := &Config{
		Engine: EngineConfig{
			Tolerance:   getEnvFloatOrDefault("AMPUTE_TOLERANCE", search.Tolerance),
			MaxIter:     getEnvIntOrDefault("AMPUTE_MAX_ITER", search.MaxIter),
			LowerRange:  getEnvFloatOrDefault("AMPUTE_LOWER_RANGE", search.Lower),
			UpperRange:  getEnvFloatOrDefault("AMPUTE_UPPER_RANGE", search.Upper),
			Standardize: getEnvBoolOrDefault("AMPUTE_STANDARDIZE", true),
			Calibrator:  getEnvOrDefault("AMPUTE_CALIBRATOR", calibration.Bisection{}.Name()),
			Target:      getEnvOrDefault("AMPUTE_TARGET", amputation.TargetRealized.String()),
			Partition:   getEnvOrDefault("AMPUTE_PARTITION", amputation.PartitionShuffled.String()),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if value := os.Getenv("AMPUTE_SEED"); value != "" {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("AMPUTE_SEED %q is not an unsigned integer", value))
		}
		config.Seed, config.Seeded = seed, true
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if _, err := config.Engine.Options(); err != nil {
		return err
	}
	if _, err := config.Engine.NewCalibrator(); err != nil {
		return err
	}
	if _, ok := internal.ParseLogLevel(config.LogLevel); !ok {
		return errors.ConfigInvalid(fmt.Sprintf("unknown LOG_LEVEL %q", config.LogLevel))
	}
	return nil
}

// Options converts the settings into engine options
func (c EngineConfig) Options() (amputation.Options, error) {
	target, err := amputation.ParseTargetMode(c.Target)
	if err != nil {
		return amputation.Options{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	partition, err := amputation.ParsePartitionMode(c.Partition)
	if err != nil {
		return amputation.Options{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	search := calibration.Search{
		Lower:     c.LowerRange,
		Upper:     c.UpperRange,
		Tolerance: c.Tolerance,
		MaxIter:   c.MaxIter,
	}
	if err := search.Validate(); err != nil {
		return amputation.Options{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return amputation.Options{
		Search:      search,
		Standardize: c.Standardize,
		Target:      target,
		Partition:   partition,
	}, nil
}

// NewCalibrator returns the configured calibration strategy
func (c EngineConfig) NewCalibrator() (ports.CalibratorPort, error) {
	switch strings.ToLower(strings.TrimSpace(c.Calibrator)) {
	case "", "bisection":
		return calibration.Bisection{}, nil
	case "false-position", "false_position", "secant", "regula-falsi":
		return calibration.FalsePosition{}, nil
	}
	return nil, errors.ConfigInvalid(fmt.Sprintf("unknown calibrator %q", c.Calibrator))
}

// Logger builds a logger at the configured level
func (c *Config) Logger() *internal.Logger {
	level, ok := internal.ParseLogLevel(c.LogLevel)
	if !ok {
		level = internal.LogLevelInfo
	}
	return internal.NewLogger(level)
}

// NewEngine builds an amputation engine from the configuration
func (c *Config) NewEngine(logger *internal.Logger) (*amputation.Engine, error) {
	opts, err := c.Engine.Options()
	if err != nil {
		return nil, err
	}
	calibrator, err := c.Engine.NewCalibrator()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = c.Logger()
	}
	return amputation.NewEngine(opts, calibrator, logger), nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
