package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/bft-labs/radbatch/internal/domain"
)

func TestPartition_TotalAndDisjoint(t *testing.T) {
	c := domain.Case{Index: 3, ID: "case_00003", OutputDir: "/export/case_00003"}
	vol := domain.NewVolume(2, 2, 2)
	res := domain.Result{
		{Name: "diagnostics_Versions_radbatch", Value: domain.Text("dev")},
		{Name: "original_firstorder_Mean", Value: domain.FeatureMap{Volume: vol}},
		{Name: "original_shape_VoxelVolume", Value: domain.Number(8)},
		{Name: "square_firstorder_Mean", Value: domain.FeatureMap{Volume: vol}},
	}
	writer := &mockVolumeWriter{}

	rec, written, err := Partition(c, res, writer, ".nrrd", mockLogger{})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	if rec.CaseID != c.ID {
		t.Errorf("CaseID = %q, want %q", rec.CaseID, c.ID)
	}
	if rec.Len()+len(written) != len(res) {
		t.Errorf("record %d + maps %d != entries %d", rec.Len(), len(written), len(res))
	}
	for _, e := range res {
		_, inRecord := rec.Get(e.Name)
		onDisk := false
		for _, p := range written {
			if p == MapPath(c, e.Name, ".nrrd") {
				onDisk = true
			}
		}
		if inRecord == onDisk {
			t.Errorf("%s: inRecord=%v onDisk=%v", e.Name, inRecord, onDisk)
		}
	}

	want := filepath.Join("/export/case_00003", "case_00003_original_firstorder_Mean.nrrd")
	if written[0] != want {
		t.Errorf("map path = %q, want %q", written[0], want)
	}
	if len(writer.paths) != 2 {
		t.Errorf("writer got %d maps, want 2", len(writer.paths))
	}
}

func TestPartition_WriteError(t *testing.T) {
	c := domain.Case{ID: "case_00000", OutputDir: "/x"}
	res := domain.Result{{Name: "m", Value: domain.FeatureMap{Volume: domain.NewVolume(1, 1, 1)}}}
	writeErr := errors.New("disk full")

	_, _, err := Partition(c, res, &mockVolumeWriter{err: writeErr}, ".nrrd", mockLogger{})
	if !errors.Is(err, writeErr) {
		t.Errorf("err = %v, want %v", err, writeErr)
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	if c.Len() != 0 {
		t.Error("new collector should be empty")
	}

	for _, id := range []string{"case_00002", "case_00000", "case_00001"} {
		rec := domain.NewRecord(id)
		rec.Set("v", domain.Text(id))
		c.Add(rec)
	}
	replacement := domain.NewRecord("case_00001")
	replacement.Set("v", domain.Text("again"))
	c.Add(replacement)

	table := c.Table()
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	wantIDs := []string{"case_00000", "case_00001", "case_00002"}
	for i, id := range wantIDs {
		if table.Rows[i].CaseID != id {
			t.Errorf("row %d = %s, want %s", i, table.Rows[i].CaseID, id)
		}
	}
	if table.Cell(1, "v") != "again" {
		t.Errorf("replaced cell = %q, want again", table.Cell(1, "v"))
	}
}
