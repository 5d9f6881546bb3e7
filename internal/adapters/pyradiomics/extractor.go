// Package pyradiomics runs the external pyradiomics command line tool as a
// feature extractor.
package pyradiomics

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/params"
	"github.com/bft-labs/radbatch/internal/ports"
)

// DefaultBinary is looked up in PATH when no binary is configured.
const DefaultBinary = "pyradiomics"

// Config configures the subprocess extractor.
type Config struct {
	Binary     string
	Params     *params.Params
	Logger     ports.Logger
	VoxelBased bool
}

// Extractor invokes pyradiomics once per case and parses its JSON output.
type Extractor struct {
	binary    string
	paramsDir string
	paramFile string
	logger    ports.Logger
}

// New writes the resolved parameters to a private temporary file so that
// options applied after loading (such as enabling all features) reach the
// subprocess. Call Close to remove it.
func New(cfg Config) (*Extractor, error) {
	if cfg.VoxelBased {
		return nil, fmt.Errorf("%w: voxel-based extraction is not supported by the pyradiomics backend", domain.ErrInvalidConfig)
	}
	if cfg.Params == nil {
		return nil, fmt.Errorf("%w: params are required", domain.ErrInvalidConfig)
	}
	bin := cfg.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	dir, err := os.MkdirTemp("", "radbatch-params-")
	if err != nil {
		return nil, fmt.Errorf("create params dir: %w", err)
	}
	file := filepath.Join(dir, "params.yaml")
	if err := cfg.Params.WriteFile(file); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("write params file: %w", err)
	}

	return &Extractor{
		binary:    bin,
		paramsDir: dir,
		paramFile: file,
		logger:    cfg.Logger,
	}, nil
}

// Close removes the temporary parameter file.
func (e *Extractor) Close() error {
	return os.RemoveAll(e.paramsDir)
}

// Execute implements ports.Extractor.
func (e *Extractor) Execute(ctx context.Context, imagePath, maskPath string) (domain.Result, error) {
	args := []string{imagePath, maskPath, "--param", e.paramFile, "--format", "json"}
	cmd := exec.CommandContext(ctx, e.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if e.logger != nil {
		e.logger.Debug("running pyradiomics", ports.String("binary", e.binary), ports.String("image", imagePath))
	}
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pyradiomics %s: %w: %s", imagePath, err, strings.TrimSpace(stderr.String()+stdout.String()))
	}

	res, err := ParseResult(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("pyradiomics output for %s: %w", imagePath, err)
	}
	return res, nil
}

var _ ports.Extractor = (*Extractor)(nil)
