package csvtable

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/radbatch/internal/domain"
)

func record(t *testing.T, id string, kv ...any) *domain.Record {
	t.Helper()
	rec := domain.NewRecord(id)
	for i := 0; i+1 < len(kv); i += 2 {
		if err := rec.Set(kv[i].(string), kv[i+1].(domain.Value)); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	return rec
}

func TestEncode(t *testing.T) {
	table := domain.NewTable([]*domain.Record{
		record(t, "case_00000", "original_firstorder_Mean", domain.Number(0), "diagnostics_Image-original_Size", domain.Text("(512, 512, 64)")),
		record(t, "case_00001", "original_firstorder_Mean", domain.Number(-12.5), "original_shape_VoxelVolume", domain.Number(1e6)),
	})

	var buf bytes.Buffer
	if err := Encode(&buf, table); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := "case_id,original_firstorder_Mean,diagnostics_Image-original_Size,original_shape_VoxelVolume\n" +
		"case_00000,0,\"(512, 512, 64)\",\n" +
		"case_00001,-12.5,,1e+06\n"
	if buf.String() != want {
		t.Errorf("Encode =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteTable_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables", "00000-00001_radiomics_feature.csv")
	table := domain.NewTable([]*domain.Record{
		record(t, "case_00000", "a", domain.Number(1.25), "b", domain.Text("x")),
		record(t, "case_00001", "b", domain.Text("y")),
	})

	s := NewStore()
	if err := s.WriteTable(path, table); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	records, err := s.ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if v, _ := records[0].Get("a"); v != domain.Number(1.25) {
		t.Errorf("a = %v, want 1.25", v)
	}
	if _, ok := records[1].Get("a"); ok {
		t.Error("empty cell should not be set")
	}
	if v, _ := records[1].Get("b"); v != domain.Text("y") {
		t.Errorf("b = %v, want y", v)
	}
}

func TestReadTable_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	if err := os.WriteFile(path, []byte("id,a\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore().ReadTable(path); err == nil {
		t.Error("expected error for missing case_id column")
	}
}
