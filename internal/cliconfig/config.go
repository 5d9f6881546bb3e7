package cliconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/radbatch/internal/domain"
)

// Extractor backends.
const (
	ExtractorNative      = "native"
	ExtractorPyradiomics = "pyradiomics"
)

// Config holds CLI configuration for radbatch.
type Config struct {
	DataDir    string
	ExportDir  string
	TableDir   string
	StateDir   string
	ParamsFile string

	Start      int
	End        int
	BatchLabel string

	Extractor       string
	PyradiomicsBin  string
	VoxelBased      bool
	MapFormat       string
	EnableAll       bool
	ContinueOnError bool

	WatchDebounce time.Duration
	WatchRetries  int

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Start:          0,
		End:            300,
		Extractor:      ExtractorNative,
		PyradiomicsBin: "pyradiomics",
		MapFormat:      "nrrd",
		WatchDebounce:  2 * time.Second,
		WatchRetries:   3,
		LogLevel:       "info",
		// ExportDir, TableDir and StateDir are derived during Validate
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data-dir is required", domain.ErrInvalidConfig)
	}

	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(c.DataDir, "radiomics")
	}
	if c.TableDir == "" {
		c.TableDir = c.ExportDir
	}
	if c.StateDir == "" {
		c.StateDir = c.ExportDir
	}

	if c.Start < 0 {
		return fmt.Errorf("%w: start must not be negative", domain.ErrInvalidConfig)
	}
	if c.End <= c.Start {
		return fmt.Errorf("%w: end (%d) must be greater than start (%d)", domain.ErrInvalidConfig, c.End, c.Start)
	}

	c.Extractor = strings.ToLower(c.Extractor)
	switch c.Extractor {
	case ExtractorNative:
	case ExtractorPyradiomics:
		if c.VoxelBased {
			return fmt.Errorf("%w: voxel-based extraction requires the native extractor", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown extractor %q", domain.ErrInvalidConfig, c.Extractor)
	}

	switch strings.ToLower(c.MapFormat) {
	case "nrrd", "nii", "nii.gz":
		c.MapFormat = strings.ToLower(c.MapFormat)
	default:
		return fmt.Errorf("%w: unknown map format %q", domain.ErrInvalidConfig, c.MapFormat)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level: %v", domain.ErrInvalidConfig, err)
	}

	if c.WatchDebounce <= 0 {
		return fmt.Errorf("%w: watch debounce must be positive", domain.ErrInvalidConfig)
	}
	if c.WatchRetries < 0 {
		return fmt.Errorf("%w: watch retries must not be negative", domain.ErrInvalidConfig)
	}

	return nil
}

// StatusDir returns the directory holding run-status.json. Unlike Validate
// it only needs a state, export or data directory.
func (c Config) StatusDir() (string, error) {
	switch {
	case c.StateDir != "":
		return c.StateDir, nil
	case c.ExportDir != "":
		return c.ExportDir, nil
	case c.DataDir != "":
		return filepath.Join(c.DataDir, "radiomics"), nil
	}
	return "", fmt.Errorf("%w: data-dir or state-dir is required", domain.ErrInvalidConfig)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value if present and flag not changed. Zero is a
// valid value here.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Unlike setInt, zero is accepted so a range can start at case 0.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return fmt.Errorf("parse %s: negative value %d", flag, i)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
