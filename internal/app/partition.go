package app

import (
	"fmt"
	"path/filepath"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/ports"
)

// MapPath returns the file a feature map of c is written to.
func MapPath(c domain.Case, feature, ext string) string {
	return filepath.Join(c.OutputDir, c.ID+"_"+feature+ext)
}

// Partition routes every entry of res: feature maps are written to disk
// immediately, everything else goes into the returned record. It returns
// the paths of the written maps.
func Partition(
	c domain.Case,
	res domain.Result,
	writer ports.VolumeWriter,
	ext string,
	logger ports.Logger,
) (*domain.Record, []string, error) {
	rec := domain.NewRecord(c.ID)
	var written []string

	for _, e := range res {
		if fm, ok := e.Value.(domain.FeatureMap); ok {
			path := MapPath(c, e.Name, ext)
			if err := writer.Write(path, fm.Volume); err != nil {
				return nil, written, fmt.Errorf("write feature map %s: %w", e.Name, err)
			}
			written = append(written, path)
			logger.Debug(fmt.Sprintf("Computed %s, stored as %q", e.Name, path),
				ports.String("case", c.ID))
			continue
		}

		if err := rec.Set(e.Name, e.Value); err != nil {
			return nil, written, err
		}
		logger.Debug(fmt.Sprintf("%s: %v", e.Name, e.Value), ports.String("case", c.ID))
	}

	return rec, written, nil
}
