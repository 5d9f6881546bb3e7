package pyradiomics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/params"
)

func TestParseResult_KeepsOrder(t *testing.T) {
	doc := `{"Image": "a.nii.gz", "Mask": "b.nii.gz",
"diagnostics_Versions_PyRadiomics": "v3.1.0",
"diagnostics_Mask-original_BoundingBox": [1, 2, 3, 4, 5, 6],
"original_shape_VoxelVolume": 1250.5,
"original_firstorder_Mean": -12.25,
"original_firstorder_Skewness": NaN,
"diagnostics_Configuration_Settings": {"label": 1, "note": "NaN inside"}}
{"Image": "second case is ignored"}`

	res, err := ParseResult([]byte(doc))
	if err != nil {
		t.Fatalf("ParseResult failed: %v", err)
	}

	want := domain.Result{
		{Name: "diagnostics_Versions_PyRadiomics", Value: domain.Text("v3.1.0")},
		{Name: "diagnostics_Mask-original_BoundingBox", Value: domain.Text("[1,2,3,4,5,6]")},
		{Name: "original_shape_VoxelVolume", Value: domain.Number(1250.5)},
		{Name: "original_firstorder_Mean", Value: domain.Number(-12.25)},
		{Name: "original_firstorder_Skewness", Value: domain.Text("")},
		{Name: "diagnostics_Configuration_Settings", Value: domain.Text(`{"label":1,"note":"NaN inside"}`)},
	}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("ParseResult =\n%v\nwant\n%v", res, want)
	}
}

func TestParseResult_Invalid(t *testing.T) {
	for _, doc := range []string{"", "[1,2]", `{"a": }`} {
		if _, err := ParseResult([]byte(doc)); err == nil {
			t.Errorf("ParseResult(%q) expected error", doc)
		}
	}
}

func TestSanitize(t *testing.T) {
	got := string(sanitize([]byte(`{"a": NaN, "b": -Infinity, "c": "Infinity \"NaN\""}`)))
	want := `{"a": null, "b": null, "c": "Infinity \"NaN\""}`
	if got != want {
		t.Errorf("sanitize = %s, want %s", got, want)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Params: params.Default(), VoxelBased: true}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("voxel mode err = %v, want ErrInvalidConfig", err)
	}

	e, err := New(Config{Params: params.Default()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if e.binary != DefaultBinary {
		t.Errorf("binary = %q, want %q", e.binary, DefaultBinary)
	}
	loaded, err := params.Load(e.paramFile)
	if err != nil {
		t.Fatalf("param file unreadable: %v", err)
	}
	if len(loaded.EnabledFeatures()) != len(params.KnownClasses) {
		t.Errorf("param file classes = %v", loaded.EnabledFeatures())
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(e.paramFile)); !os.IsNotExist(err) {
		t.Errorf("params dir still present: %v", err)
	}
}

func TestExecute_MissingBinary(t *testing.T) {
	e, err := New(Config{Params: params.Default(), Binary: filepath.Join(t.TempDir(), "no-such-pyradiomics")})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	if _, err := e.Execute(context.Background(), "img.nii.gz", "mask.nii.gz"); err == nil {
		t.Error("expected error for missing binary")
	}
}
