// Package imageio selects a volume codec by file extension.
package imageio

import (
	"fmt"
	"strings"

	"github.com/bft-labs/radbatch/internal/adapters/nifti"
	"github.com/bft-labs/radbatch/internal/adapters/nrrd"
	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/ports"
)

// Registry reads and writes volumes, dispatching on the path extension.
type Registry struct {
	// NRRDEncoding is used when writing .nrrd files.
	NRRDEncoding nrrd.Encoding
}

// NewRegistry returns a Registry that writes gzip-compressed NRRD files.
func NewRegistry() *Registry {
	return &Registry{NRRDEncoding: nrrd.EncodingGzip}
}

// Format returns the canonical format name of path, or "" if unknown.
func Format(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".nii.gz"), strings.HasSuffix(p, ".nii"):
		return "nifti"
	case strings.HasSuffix(p, ".nrrd"):
		return "nrrd"
	}
	return ""
}

// Extension maps a map format name to its file extension.
func Extension(format string) (string, error) {
	switch strings.ToLower(format) {
	case "nrrd":
		return ".nrrd", nil
	case "nii":
		return ".nii", nil
	case "nii.gz", "nifti":
		return ".nii.gz", nil
	}
	return "", fmt.Errorf("%w: map format %q", domain.ErrUnsupportedFormat, format)
}

// Read implements ports.VolumeReader.
func (r *Registry) Read(path string) (*domain.Volume, error) {
	switch Format(path) {
	case "nifti":
		return nifti.Read(path)
	case "nrrd":
		return nrrd.Read(path)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
}

// Write implements ports.VolumeWriter.
func (r *Registry) Write(path string, vol *domain.Volume) error {
	switch Format(path) {
	case "nifti":
		return nifti.Write(path, vol)
	case "nrrd":
		return nrrd.Write(path, vol, r.NRRDEncoding)
	}
	return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
}

var (
	_ ports.VolumeReader = (*Registry)(nil)
	_ ports.VolumeWriter = (*Registry)(nil)
)
