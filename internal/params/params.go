// Package params loads extraction parameter files in the pyradiomics YAML
// schema (imageType, featureClass, setting, voxelSetting).
package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bft-labs/radbatch/internal/domain"
)

// ImageType is an enabled input image type with its custom options.
type ImageType struct {
	Name    string
	Options map[string]any
}

// FeatureClass is an enabled feature class. A nil Features slice enables
// every feature of the class.
type FeatureClass struct {
	Name     string
	Features []string
}

// AllFeatures reports whether every feature of the class is enabled.
func (c FeatureClass) AllFeatures() bool {
	return len(c.Features) == 0
}

// Settings holds the general extraction settings.
type Settings struct {
	BinWidth        float64 `yaml:"binWidth"`
	Label           int     `yaml:"label"`
	VoxelArrayShift float64 `yaml:"voxelArrayShift"`
	AdditionalInfo  bool    `yaml:"additionalInfo"`
	Normalize       bool    `yaml:"normalize"`
	NormalizeScale  float64 `yaml:"normalizeScale"`

	// Extra keeps settings not interpreted here so they survive a rewrite.
	Extra map[string]any `yaml:",inline"`
}

// Map flattens the settings into a single key/value map.
func (s Settings) Map() map[string]any {
	m := make(map[string]any, len(s.Extra)+6)
	for k, v := range s.Extra {
		m[k] = v
	}
	m["binWidth"] = s.BinWidth
	m["label"] = s.Label
	m["voxelArrayShift"] = s.VoxelArrayShift
	m["additionalInfo"] = s.AdditionalInfo
	m["normalize"] = s.Normalize
	m["normalizeScale"] = s.NormalizeScale
	return m
}

// VoxelSettings controls voxel-based extraction.
type VoxelSettings struct {
	KernelRadius int     `yaml:"kernelRadius"`
	MaskedKernel bool    `yaml:"maskedKernel"`
	InitValue    float64 `yaml:"initValue"`

	Extra map[string]any `yaml:",inline"`
}

// DefaultSettings returns the settings used when a key is absent.
func DefaultSettings() Settings {
	return Settings{
		BinWidth:       25,
		Label:          1,
		AdditionalInfo: true,
		NormalizeScale: 1,
	}
}

// DefaultVoxelSettings returns the voxel settings used when a key is absent.
func DefaultVoxelSettings() VoxelSettings {
	return VoxelSettings{
		KernelRadius: 1,
		MaskedKernel: true,
	}
}

// KnownClasses lists the feature classes in extraction order.
var KnownClasses = []string{"firstorder", "shape", "glcm", "glrlm", "glszm", "gldm", "ngtdm"}

// Params is a parsed parameter file.
type Params struct {
	imageTypes []ImageType
	classes    []FeatureClass
	setting    Settings
	voxel      VoxelSettings
}

// Default returns the Original image type with every feature class enabled.
func Default() *Params {
	p := &Params{
		imageTypes: []ImageType{{Name: "Original", Options: map[string]any{}}},
		setting:    DefaultSettings(),
		voxel:      DefaultVoxelSettings(),
	}
	p.EnableAllFeatures()
	return p
}

type document struct {
	ImageType    yaml.Node     `yaml:"imageType"`
	FeatureClass yaml.Node     `yaml:"featureClass"`
	Setting      Settings      `yaml:"setting"`
	VoxelSetting VoxelSettings `yaml:"voxelSetting"`
}

// Load reads the parameter file at path. An empty path yields Default().
func Load(path string) (*Params, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params file: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("params file %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a parameter document.
func Parse(data []byte) (*Params, error) {
	doc := document{
		Setting:      DefaultSettings(),
		VoxelSetting: DefaultVoxelSettings(),
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	p := &Params{setting: doc.Setting, voxel: doc.VoxelSetting}

	types, err := parseImageTypes(&doc.ImageType)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []ImageType{{Name: "Original", Options: map[string]any{}}}
	}
	p.imageTypes = types

	classes, err := parseFeatureClasses(&doc.FeatureClass)
	if err != nil {
		return nil, err
	}
	if classes == nil {
		p.EnableAllFeatures()
	} else {
		p.classes = classes
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// parseImageTypes walks the mapping in document order.
func parseImageTypes(n *yaml.Node) ([]ImageType, error) {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: imageType must be a mapping", domain.ErrInvalidConfig)
	}

	types := make([]ImageType, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		opts := map[string]any{}
		if val.Tag != "!!null" {
			if err := val.Decode(&opts); err != nil {
				return nil, fmt.Errorf("%w: imageType %s: %v", domain.ErrInvalidConfig, key.Value, err)
			}
		}
		types = append(types, ImageType{Name: key.Value, Options: opts})
	}
	return types, nil
}

func parseFeatureClasses(n *yaml.Node) ([]FeatureClass, error) {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: featureClass must be a mapping", domain.ErrInvalidConfig)
	}

	classes := make([]FeatureClass, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		fc := FeatureClass{Name: key.Value}
		if val.Tag != "!!null" {
			if err := val.Decode(&fc.Features); err != nil {
				return nil, fmt.Errorf("%w: featureClass %s: %v", domain.ErrInvalidConfig, key.Value, err)
			}
		}
		classes = append(classes, fc)
	}
	return classes, nil
}

// Validate checks the numeric settings.
func (p *Params) Validate() error {
	if p.setting.BinWidth <= 0 {
		return fmt.Errorf("%w: binWidth must be > 0, got %v", domain.ErrInvalidConfig, p.setting.BinWidth)
	}
	if p.setting.Normalize && p.setting.NormalizeScale <= 0 {
		return fmt.Errorf("%w: normalizeScale must be > 0", domain.ErrInvalidConfig)
	}
	if p.voxel.KernelRadius < 1 {
		return fmt.Errorf("%w: kernelRadius must be >= 1", domain.ErrInvalidConfig)
	}
	return nil
}

// EnableAllFeatures enables every known class with all of its features.
func (p *Params) EnableAllFeatures() {
	p.classes = make([]FeatureClass, len(KnownClasses))
	for i, name := range KnownClasses {
		p.classes[i] = FeatureClass{Name: name}
	}
}

// EnabledImageTypes returns the image types in document order.
func (p *Params) EnabledImageTypes() []ImageType {
	return append([]ImageType(nil), p.imageTypes...)
}

// EnabledFeatures returns the enabled feature classes.
func (p *Params) EnabledFeatures() []FeatureClass {
	return append([]FeatureClass(nil), p.classes...)
}

// Settings returns the general settings.
func (p *Params) Settings() Settings {
	return p.setting
}

// VoxelSettings returns the voxel-based settings.
func (p *Params) VoxelSettings() VoxelSettings {
	return p.voxel
}

type output struct {
	ImageType    map[string]map[string]any `yaml:"imageType"`
	FeatureClass map[string]any            `yaml:"featureClass"`
	Setting      Settings                  `yaml:"setting"`
	VoxelSetting VoxelSettings             `yaml:"voxelSetting"`
}

// Marshal renders the parameters back to YAML.
func (p *Params) Marshal() ([]byte, error) {
	out := output{
		ImageType:    make(map[string]map[string]any, len(p.imageTypes)),
		FeatureClass: make(map[string]any, len(p.classes)),
		Setting:      p.setting,
		VoxelSetting: p.voxel,
	}
	for _, t := range p.imageTypes {
		out.ImageType[t.Name] = t.Options
	}
	for _, c := range p.classes {
		if c.AllFeatures() {
			out.FeatureClass[c.Name] = nil
		} else {
			out.FeatureClass[c.Name] = c.Features
		}
	}
	return yaml.Marshal(out)
}

// WriteFile writes the parameters to path as YAML.
func (p *Params) WriteFile(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
