package radiomics

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/params"
	"github.com/bft-labs/radbatch/internal/ports"
)

// Config configures a native Extractor.
type Config struct {
	Params *params.Params
	Reader ports.VolumeReader
	Logger ports.Logger

	// VoxelBased returns first-order feature maps instead of scalars.
	VoxelBased bool

	// Version is reported in the diagnostics.
	Version string
}

type imageType struct {
	prefix string
	filter filterFunc
}

// Extractor computes features for one image/mask pair at a time.
// It is configured once and reused across cases.
type Extractor struct {
	params     *params.Params
	reader     ports.VolumeReader
	logger     ports.Logger
	voxelBased bool
	version    string

	imageTypes []imageType
	firstOrder []string
	shape      []string
}

// New validates the parameters against what the native engine supports.
// Unsupported image types and feature classes are logged and skipped.
func New(cfg Config) (*Extractor, error) {
	if cfg.Params == nil {
		return nil, fmt.Errorf("%w: params are required", domain.ErrInvalidConfig)
	}
	if cfg.Reader == nil {
		return nil, fmt.Errorf("%w: volume reader is required", domain.ErrInvalidConfig)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	e := &Extractor{
		params:     cfg.Params,
		reader:     cfg.Reader,
		logger:     cfg.Logger,
		voxelBased: cfg.VoxelBased,
		version:    cfg.Version,
	}

	for _, t := range cfg.Params.EnabledImageTypes() {
		f, ok := lookupFilter(t.Name)
		if !ok {
			e.logWarn("image type not supported by native extractor, skipping",
				ports.String("image_type", t.Name))
			continue
		}
		e.imageTypes = append(e.imageTypes, imageType{prefix: strings.ToLower(t.Name), filter: f})
	}
	if len(e.imageTypes) == 0 {
		return nil, fmt.Errorf("%w: no supported image type enabled", domain.ErrInvalidConfig)
	}

	for _, c := range cfg.Params.EnabledFeatures() {
		var err error
		switch c.Name {
		case "firstorder":
			e.firstOrder, err = selectFeatures(c, firstOrderFeatures)
		case "shape":
			if cfg.VoxelBased {
				e.logWarn("shape features are not computed in voxel-based mode")
				continue
			}
			e.shape, err = selectFeatures(c, shapeFeatures)
		default:
			e.logWarn("feature class not supported by native extractor, skipping",
				ports.String("class", c.Name))
		}
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

func selectFeatures(c params.FeatureClass, known []string) ([]string, error) {
	if c.AllFeatures() {
		return append([]string(nil), known...), nil
	}
	for _, f := range c.Features {
		found := false
		for _, k := range known {
			if f == k {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: unknown %s feature %q", domain.ErrInvalidConfig, c.Name, f)
		}
	}
	return append([]string(nil), c.Features...), nil
}

// geometryTolerance reads the optional geometryTolerance setting.
func geometryTolerance(s params.Settings) float64 {
	if v, ok := s.Extra["geometryTolerance"].(float64); ok && v > 0 {
		return v
	}
	return domain.DefaultGeometryTolerance
}

func (e *Extractor) logWarn(msg string, fields ...ports.Field) {
	if e.logger != nil {
		e.logger.Warn(msg, fields...)
	}
}

// Execute implements ports.Extractor.
func (e *Extractor) Execute(ctx context.Context, imagePath, maskPath string) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	image, err := e.reader.Read(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	mask, err := e.reader.Read(maskPath)
	if err != nil {
		return nil, fmt.Errorf("read mask: %w", err)
	}
	settings := e.params.Settings()
	if err := image.CheckGeometry(mask, geometryTolerance(settings)); err != nil {
		return nil, fmt.Errorf("%s: %w", maskPath, err)
	}
	roi, inROI := selectROI(mask, settings.Label)
	if len(roi) == 0 {
		return nil, fmt.Errorf("%w: label %d not present in %s", domain.ErrEmptyROI, settings.Label, maskPath)
	}

	var res domain.Result
	if settings.AdditionalInfo {
		diag, err := e.diagnostics(image, mask, roi)
		if err != nil {
			return nil, err
		}
		res = append(res, diag...)
	}

	if settings.Normalize {
		image = normalizeImage(image, settings.NormalizeScale)
	}

	if len(e.shape) > 0 {
		feats, err := computeShape(mask, roi)
		if err != nil {
			return nil, err
		}
		for _, name := range e.shape {
			res = append(res, domain.Entry{Name: "original_shape_" + name, Value: domain.Number(feats[name])})
		}
	}

	if len(e.firstOrder) == 0 {
		return res, nil
	}

	for _, t := range e.imageTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		filtered := t.filter(image)
		values := gather(filtered, roi)
		p := firstOrderParams{
			binWidth:    settings.BinWidth,
			shift:       settings.VoxelArrayShift,
			voxelVolume: filtered.VoxelVolume(),
			binMin:      math.NaN(),
		}

		if e.voxelBased {
			p.binMin = floats.Min(values)
			maps, err := voxelFirstOrder(ctx, filtered, inROI, roi, e.firstOrder, p, e.params.VoxelSettings())
			if err != nil {
				return nil, err
			}
			for i, name := range e.firstOrder {
				res = append(res, domain.Entry{
					Name:  t.prefix + "_firstorder_" + name,
					Value: domain.FeatureMap{Volume: maps[i]},
				})
			}
			continue
		}

		feats := computeFirstOrder(values, p)
		for _, name := range e.firstOrder {
			res = append(res, domain.Entry{
				Name:  t.prefix + "_firstorder_" + name,
				Value: domain.Number(feats[name]),
			})
		}
	}

	return res, nil
}

// selectROI returns the indices of voxels whose mask value equals label,
// and a lookup of the same set.
func selectROI(mask *domain.Volume, label int) ([]int, []bool) {
	var roi []int
	inROI := make([]bool, len(mask.Data))
	for i, v := range mask.Data {
		if int(math.Round(v)) == label {
			roi = append(roi, i)
			inROI[i] = true
		}
	}
	return roi, inROI
}

func gather(vol *domain.Volume, roi []int) []float64 {
	values := make([]float64, len(roi))
	for i, idx := range roi {
		values[i] = vol.Data[idx]
	}
	return values
}

var _ ports.Extractor = (*Extractor)(nil)
