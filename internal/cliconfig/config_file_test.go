package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	zero := 0
	five := 5

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				DataDir:         "/kits19/data",
				TableDir:        "/tables",
				Params:          "exampleCT.yaml",
				Start:           &zero,
				End:             300,
				BatchLabel:      "kits19",
				MapFormat:       "nii.gz",
				VoxelBased:      &trueVal,
				ContinueOnError: &trueVal,
				WatchDebounce:   "500ms",
				WatchRetries:    &five,
			},
			changed: map[string]bool{},
			initial: Config{Start: 12},
			expected: Config{
				DataDir:         "/kits19/data",
				TableDir:        "/tables",
				ParamsFile:      "exampleCT.yaml",
				Start:           0,
				End:             300,
				BatchLabel:      "kits19",
				MapFormat:       "nii.gz",
				VoxelBased:      true,
				ContinueOnError: true,
				WatchDebounce:   500 * time.Millisecond,
				WatchRetries:    5,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				DataDir: "/config/data",
				Start:   &zero,
				End:     20,
			},
			changed: map[string]bool{"data-dir": true, "start": true},
			initial: Config{DataDir: "/flag/data", Start: 4},
			expected: Config{
				DataDir: "/flag/data", // unchanged because flag was set
				Start:   4,
				End:     20,
			},
		},
		{
			name:       "zero watch retries overrides the default",
			fileConfig: FileConfig{WatchRetries: &zero},
			changed:    map[string]bool{},
			initial:    Config{WatchRetries: 3},
			expected:   Config{WatchRetries: 0},
		},
		{
			name:       "watch retries flag wins over file",
			fileConfig: FileConfig{WatchRetries: &zero},
			changed:    map[string]bool{"watch-retries": true},
			initial:    Config{WatchRetries: 7},
			expected:   Config{WatchRetries: 7},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{WatchDebounce: "later"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v\nwant %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
data_dir = "/kits19/data"
params = "/kits19/exampleCT.yaml"
start = 0
end = 210
extractor = "pyradiomics"
continue_on_error = true
watch_debounce = "3s"
watch_retries = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig failed: %v", err)
	}
	if fc.DataDir != "/kits19/data" || fc.End != 210 || fc.Extractor != "pyradiomics" {
		t.Errorf("file config = %+v", fc)
	}
	if fc.Start == nil || *fc.Start != 0 {
		t.Errorf("Start = %v, want pointer to 0", fc.Start)
	}
	if fc.WatchRetries == nil || *fc.WatchRetries != 0 {
		t.Errorf("WatchRetries = %v, want pointer to 0", fc.WatchRetries)
	}
	if fc.ContinueOnError == nil || !*fc.ContinueOnError {
		t.Error("ContinueOnError should be true")
	}
	if fc.VoxelBased != nil {
		t.Error("VoxelBased should be unset")
	}

	if _, err := LoadFileConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("end = [unterminated"), 0o644)
	if _, err := LoadFileConfig(bad); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	p := DefaultConfigPath()
	if p != "" && !strings.HasSuffix(p, filepath.Join(".radbatch", "config.toml")) {
		t.Errorf("DefaultConfigPath() = %v", p)
	}
	if FileExists(filepath.Join(t.TempDir(), "nope")) {
		t.Error("FileExists reported a missing file")
	}
}
