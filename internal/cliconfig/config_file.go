package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir         string `toml:"data_dir"`
	ExportDir       string `toml:"export_dir"`
	TableDir        string `toml:"table_dir"`
	StateDir        string `toml:"state_dir"`
	Params          string `toml:"params"`
	Start           *int   `toml:"start"`
	End             int    `toml:"end"`
	BatchLabel      string `toml:"batch_label"`
	Extractor       string `toml:"extractor"`
	PyradiomicsBin  string `toml:"pyradiomics_bin"`
	VoxelBased      *bool  `toml:"voxel_based"`
	MapFormat       string `toml:"map_format"`
	EnableAll       *bool  `toml:"enable_all"`
	ContinueOnError *bool  `toml:"continue_on_error"`
	WatchDebounce   string `toml:"watch_debounce"`
	WatchRetries    *int   `toml:"watch_retries"`
	LogLevel        string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.radbatch/config.toml, or "" if the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".radbatch", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("export-dir", fc.ExportDir, &cfg.ExportDir)
	s.setString("table-dir", fc.TableDir, &cfg.TableDir)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("params", fc.Params, &cfg.ParamsFile)
	s.setString("batch-label", fc.BatchLabel, &cfg.BatchLabel)
	s.setString("extractor", fc.Extractor, &cfg.Extractor)
	s.setString("pyradiomics-bin", fc.PyradiomicsBin, &cfg.PyradiomicsBin)
	s.setString("map-format", fc.MapFormat, &cfg.MapFormat)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setIntPtr("start", fc.Start, &cfg.Start)
	s.setInt("end", fc.End, &cfg.End)
	s.setIntPtr("watch-retries", fc.WatchRetries, &cfg.WatchRetries)

	if err := s.setDuration("watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setBool("voxel-based", fc.VoxelBased, &cfg.VoxelBased)
	s.setBool("enable-all", fc.EnableAll, &cfg.EnableAll)
	s.setBool("continue-on-error", fc.ContinueOnError, &cfg.ContinueOnError)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
