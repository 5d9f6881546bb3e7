package radiomics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bft-labs/radbatch/internal/domain"
)

const diagPrefix = "diagnostics_"

// diagnostics describes the configuration and the inputs of one extraction.
func (e *Extractor) diagnostics(image, mask *domain.Volume, roi []int) (domain.Result, error) {
	settings, err := json.Marshal(e.params.Settings().Map())
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	types := make(map[string]map[string]any)
	for _, t := range e.params.EnabledImageTypes() {
		types[t.Name] = t.Options
	}
	enabled, err := json.Marshal(types)
	if err != nil {
		return nil, fmt.Errorf("encode image types: %w", err)
	}

	res := domain.Result{
		{Name: diagPrefix + "Versions_radbatch", Value: domain.Text(e.version)},
		{Name: diagPrefix + "Configuration_Settings", Value: domain.Text(settings)},
		{Name: diagPrefix + "Configuration_EnabledImageTypes", Value: domain.Text(enabled)},
		{Name: diagPrefix + "Image-original_Dimensionality", Value: domain.Text("3D")},
		{Name: diagPrefix + "Image-original_Spacing", Value: tupleFloat(image.Spacing[:]...)},
		{Name: diagPrefix + "Image-original_Size", Value: tupleInt(image.Size[:]...)},
		{Name: diagPrefix + "Image-original_Mean", Value: domain.Number(stat.Mean(image.Data, nil))},
		{Name: diagPrefix + "Image-original_Minimum", Value: domain.Number(floats.Min(image.Data))},
		{Name: diagPrefix + "Image-original_Maximum", Value: domain.Number(floats.Max(image.Data))},
		{Name: diagPrefix + "Mask-original_Spacing", Value: tupleFloat(mask.Spacing[:]...)},
		{Name: diagPrefix + "Mask-original_Size", Value: tupleInt(mask.Size[:]...)},
	}

	lo := [3]int{mask.Size[0], mask.Size[1], mask.Size[2]}
	var hi [3]int
	var com [3]float64
	for _, idx := range roi {
		x, y, z := mask.Coord(idx)
		c := [3]int{x, y, z}
		for i := range c {
			if c[i] < lo[i] {
				lo[i] = c[i]
			}
			if c[i] > hi[i] {
				hi[i] = c[i]
			}
			com[i] += float64(c[i])
		}
	}
	n := float64(len(roi))
	for i := range com {
		com[i] /= n
	}
	phys := mask.Physical(com[0], com[1], com[2])

	res = append(res,
		domain.Entry{Name: diagPrefix + "Mask-original_BoundingBox", Value: tupleInt(
			lo[0], lo[1], lo[2], hi[0]-lo[0]+1, hi[1]-lo[1]+1, hi[2]-lo[2]+1)},
		domain.Entry{Name: diagPrefix + "Mask-original_VoxelNum", Value: domain.Number(n)},
		domain.Entry{Name: diagPrefix + "Mask-original_CenterOfMassIndex", Value: tupleFloat(com[:]...)},
		domain.Entry{Name: diagPrefix + "Mask-original_CenterOfMass", Value: tupleFloat(phys[:]...)},
	)
	return res, nil
}

func tupleFloat(vs ...float64) domain.Text {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return domain.Text("(" + strings.Join(parts, ", ") + ")")
}

func tupleInt(vs ...int) domain.Text {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return domain.Text("(" + strings.Join(parts, ", ") + ")")
}
