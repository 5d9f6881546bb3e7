package radiomics

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/params"
	"github.com/bft-labs/radbatch/internal/ports"
)

// memReader serves volumes from memory.
type memReader map[string]*domain.Volume

func (m memReader) Read(path string) (*domain.Volume, error) {
	v, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("no volume at %s", path)
	}
	return v, nil
}

type recordingLogger struct {
	warns []string
}

func (l *recordingLogger) Debug(string, ...ports.Field) {}
func (l *recordingLogger) Info(string, ...ports.Field)  {}
func (l *recordingLogger) Warn(msg string, _ ...ports.Field) {
	l.warns = append(l.warns, msg)
}
func (l *recordingLogger) Error(string, ...ports.Field) {}

func mustParams(t *testing.T, doc string) *params.Params {
	t.Helper()
	p, err := params.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("params.Parse: %v", err)
	}
	return p
}

func TestExecute_UniformImageSingleVoxel(t *testing.T) {
	image := domain.NewVolume(4, 4, 4)
	mask := domain.NewVolume(4, 4, 4)
	mask.Set(1, 2, 3, 1)

	e, err := New(Config{
		Params: params.Default(),
		Reader: memReader{"img": image, "msk": mask},
		Logger: &recordingLogger{},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := e.Execute(context.Background(), "img", "msk")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	v, ok := res.Get("original_firstorder_Mean")
	if !ok {
		t.Fatalf("original_firstorder_Mean missing from %v", res.Names())
	}
	if v != domain.Number(0) {
		t.Errorf("original_firstorder_Mean = %v, want 0", v)
	}
	for _, entry := range res {
		if !domain.IsScalar(entry.Value) {
			t.Errorf("%s is not scalar", entry.Name)
		}
	}
	if v, _ := res.Get("diagnostics_Mask-original_VoxelNum"); v != domain.Number(1) {
		t.Errorf("VoxelNum = %v, want 1", v)
	}
	if v, _ := res.Get("diagnostics_Mask-original_BoundingBox"); v != domain.Text("(1, 2, 3, 1, 1, 1)") {
		t.Errorf("BoundingBox = %v", v)
	}
	if v, _ := res.Get("original_shape_VoxelVolume"); v != domain.Number(1) {
		t.Errorf("VoxelVolume = %v, want 1", v)
	}
}

func TestExecute_NamesAndOrder(t *testing.T) {
	image := domain.NewVolume(2, 2, 1)
	copy(image.Data, []float64{1, 2, 3, 4})
	mask := domain.NewVolume(2, 2, 1)
	copy(mask.Data, []float64{1, 1, 1, 0})

	p := mustParams(t, `
imageType:
  Original:
  Square:
featureClass:
  firstorder: [Mean, Maximum]
setting:
  additionalInfo: false
`)
	e, err := New(Config{Params: p, Reader: memReader{"i": image, "m": mask}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := e.Execute(context.Background(), "i", "m")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []string{
		"original_firstorder_Mean",
		"original_firstorder_Maximum",
		"square_firstorder_Mean",
		"square_firstorder_Maximum",
	}
	if !reflect.DeepEqual(res.Names(), want) {
		t.Errorf("names = %v, want %v", res.Names(), want)
	}
	if v, _ := res.Get("original_firstorder_Mean"); v != domain.Number(2) {
		t.Errorf("mean = %v, want 2", v)
	}
}

func TestExecute_Deterministic(t *testing.T) {
	image := domain.NewVolume(5, 5, 3)
	mask := domain.NewVolume(5, 5, 3)
	for i := range image.Data {
		image.Data[i] = float64((i*37)%101) - 50
		if i%3 != 0 {
			mask.Data[i] = 1
		}
	}
	reader := memReader{"i": image, "m": mask}
	p := mustParams(t, "imageType:\n  Original:\n  Logarithm:\n  Exponential:\n")

	e, err := New(Config{Params: p, Reader: reader, Logger: &recordingLogger{}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	first, err := e.Execute(context.Background(), "i", "m")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	second, err := e.Execute(context.Background(), "i", "m")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated extraction produced different results")
	}
}

func TestExecute_Errors(t *testing.T) {
	image := domain.NewVolume(2, 2, 2)
	small := domain.NewVolume(2, 2, 1)
	empty := domain.NewVolume(2, 2, 2)
	shifted := domain.NewVolumeLike(image, 1)
	shifted.Origin = [3]float64{0, 0, 1.5}
	resampled := domain.NewVolumeLike(image, 1)
	resampled.Spacing = [3]float64{1, 1, 3}
	reader := memReader{"img": image, "small": small, "empty": empty, "shifted": shifted, "resampled": resampled}

	e, err := New(Config{Params: params.Default(), Reader: reader, Logger: &recordingLogger{}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name    string
		mask    string
		wantErr error
	}{
		{"geometry", "small", domain.ErrGeometryMismatch},
		{"origin", "shifted", domain.ErrGeometryMismatch},
		{"spacing", "resampled", domain.ErrGeometryMismatch},
		{"empty roi", "empty", domain.ErrEmptyROI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), "img", tt.mask)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := e.Execute(context.Background(), "missing", "empty"); err == nil {
		t.Error("expected read error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Execute(ctx, "img", "empty"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExecute_GeometryToleranceSetting(t *testing.T) {
	image := domain.NewVolume(2, 2, 2)
	mask := domain.NewVolumeLike(image, 1)
	mask.Origin = [3]float64{0.01, 0, 0}
	reader := memReader{"img": image, "msk": mask}

	strict, err := New(Config{Params: params.Default(), Reader: reader, Logger: &recordingLogger{}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := strict.Execute(context.Background(), "img", "msk"); !errors.Is(err, domain.ErrGeometryMismatch) {
		t.Errorf("default tolerance: err = %v, want ErrGeometryMismatch", err)
	}

	p := mustParams(t, "setting:\n  geometryTolerance: 0.1\n")
	loose, err := New(Config{Params: p, Reader: reader, Logger: &recordingLogger{}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := loose.Execute(context.Background(), "img", "msk"); err != nil {
		t.Errorf("geometryTolerance 0.1: unexpected error %v", err)
	}
}

func TestNew_SkipsUnsupported(t *testing.T) {
	logger := &recordingLogger{}
	p := mustParams(t, "imageType:\n  Original:\n  Wavelet:\nfeatureClass:\n  firstorder:\n  glcm:\n")

	e, err := New(Config{Params: p, Reader: memReader{}, Logger: logger})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(e.imageTypes) != 1 || e.imageTypes[0].prefix != "original" {
		t.Errorf("image types = %+v", e.imageTypes)
	}
	if len(logger.warns) != 2 {
		t.Errorf("warnings = %v, want 2", logger.warns)
	}

	if _, err := New(Config{Params: mustParams(t, "imageType:\n  LoG:\n"), Reader: memReader{}}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
	if _, err := New(Config{Params: mustParams(t, "featureClass:\n  firstorder: [Bogus]\n"), Reader: memReader{}}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestExecute_VoxelBased(t *testing.T) {
	image := domain.NewVolume(3, 3, 1)
	mask := domain.NewVolume(3, 3, 1)
	for i := range image.Data {
		image.Data[i] = float64(i)
		mask.Data[i] = 1
	}
	mask.Data[0] = 0

	p := mustParams(t, `
featureClass:
  firstorder: [Mean, Maximum]
  shape:
voxelSetting:
  kernelRadius: 1
  initValue: -1
`)
	logger := &recordingLogger{}
	e, err := New(Config{Params: p, Reader: memReader{"i": image, "m": mask}, Logger: logger, VoxelBased: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := e.Execute(context.Background(), "i", "m")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var maps, scalars int
	for _, entry := range res {
		if domain.IsScalar(entry.Value) {
			scalars++
			if !strings.HasPrefix(entry.Name, "diagnostics_") {
				t.Errorf("unexpected scalar %s in voxel mode", entry.Name)
			}
			continue
		}
		maps++
	}
	if maps != 2 || scalars == 0 {
		t.Fatalf("maps = %d, scalars = %d", maps, scalars)
	}

	v, _ := res.Get("original_firstorder_Mean")
	mean := v.(domain.FeatureMap).Volume
	if mean.Data[0] != -1 {
		t.Errorf("outside ROI = %v, want init value -1", mean.Data[0])
	}
	if mean.Data[4] != 4.5 {
		t.Errorf("center mean = %v, want 4.5", mean.Data[4])
	}
	if mean.Data[8] != 6 {
		t.Errorf("corner mean = %v, want 6", mean.Data[8])
	}
	if !mean.SameGrid(image) {
		t.Error("feature map must share the image grid")
	}
	if _, ok := res.Get("original_shape_VoxelVolume"); ok {
		t.Error("shape must be skipped in voxel mode")
	}
	if len(logger.warns) == 0 {
		t.Error("expected a warning about shape in voxel mode")
	}
}
