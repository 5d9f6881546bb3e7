package ports

import "github.com/bft-labs/radbatch/internal/domain"

// VolumeReader decodes a volume from a file.
type VolumeReader interface {
	Read(path string) (*domain.Volume, error)
}

// VolumeWriter encodes a volume to a file. The format is chosen from the
// path extension.
type VolumeWriter interface {
	Write(path string, vol *domain.Volume) error
}
