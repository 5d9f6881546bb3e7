package cliconfig

import "os"

// EnvPrefix prefixes every environment variable radbatch reads.
const EnvPrefix = "RADBATCH_"

// ApplyEnvConfig applies configuration from environment variables (RADBATCH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("data-dir", env("DATA_DIR"), &cfg.DataDir)
	s.setString("export-dir", env("EXPORT_DIR"), &cfg.ExportDir)
	s.setString("table-dir", env("TABLE_DIR"), &cfg.TableDir)
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)
	s.setString("params", env("PARAMS"), &cfg.ParamsFile)
	s.setString("batch-label", env("BATCH_LABEL"), &cfg.BatchLabel)
	s.setString("extractor", env("EXTRACTOR"), &cfg.Extractor)
	s.setString("pyradiomics-bin", env("PYRADIOMICS_BIN"), &cfg.PyradiomicsBin)
	s.setString("map-format", env("MAP_FORMAT"), &cfg.MapFormat)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("start", env("START"), &cfg.Start); err != nil {
		return err
	}
	if err := s.setIntFromString("end", env("END"), &cfg.End); err != nil {
		return err
	}
	if err := s.setIntFromString("watch-retries", env("WATCH_RETRIES"), &cfg.WatchRetries); err != nil {
		return err
	}
	if err := s.setDuration("watch-debounce", env("WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}

	s.setBoolFromString("voxel-based", env("VOXEL_BASED"), &cfg.VoxelBased)
	s.setBoolFromString("enable-all", env("ENABLE_ALL"), &cfg.EnableAll)
	s.setBoolFromString("continue-on-error", env("CONTINUE_ON_ERROR"), &cfg.ContinueOnError)

	return nil
}
