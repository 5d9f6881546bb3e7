// Package layout derives per-case input and output paths from a cohort
// directory layout.
package layout

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/radbatch/internal/domain"
)

// MaxCaseIndex is the largest index that formats as a five-digit case ID.
const MaxCaseIndex = 99999

// Layout describes where case images and masks live and where outputs go.
type Layout struct {
	DataDir     string
	ImagesDir   string
	LabelsDir   string
	CasePrefix  string
	ImageSuffix string
	ImageExt    string
	MaskExt     string
	ExportDir   string
}

// Default returns the imagesTr/labelsTr layout rooted at dataDir.
func Default(dataDir, exportDir string) Layout {
	return Layout{
		DataDir:     dataDir,
		ImagesDir:   "imagesTr",
		LabelsDir:   "labelsTr",
		CasePrefix:  "case_",
		ImageSuffix: "_0000",
		ImageExt:    ".nii.gz",
		MaskExt:     ".nii.gz",
		ExportDir:   exportDir,
	}
}

// CaseID formats i as the zero-padded case identifier.
func (l Layout) CaseID(i int) (string, error) {
	if i < 0 || i > MaxCaseIndex {
		return "", fmt.Errorf("%w: %d not in [0, %d]", domain.ErrInvalidCaseIndex, i, MaxCaseIndex)
	}
	return fmt.Sprintf("%s%05d", l.CasePrefix, i), nil
}

// Resolve returns the paths for case i. Files are not checked for existence.
func (l Layout) Resolve(i int) (domain.Case, error) {
	id, err := l.CaseID(i)
	if err != nil {
		return domain.Case{}, err
	}
	return domain.Case{
		Index:     i,
		ID:        id,
		ImagePath: filepath.Join(l.DataDir, l.ImagesDir, id+l.ImageSuffix+l.ImageExt),
		MaskPath:  filepath.Join(l.DataDir, l.LabelsDir, id+l.MaskExt),
		OutputDir: filepath.Join(l.ExportDir, id),
	}, nil
}

// LabelsPath is the directory holding the masks.
func (l Layout) LabelsPath() string {
	return filepath.Join(l.DataDir, l.LabelsDir)
}

// ParseCaseID maps a mask file name (base name or full path) back to its
// case index. ok is false when name is not a mask of this layout.
func (l Layout) ParseCaseID(name string) (int, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, l.CasePrefix) || !strings.HasSuffix(base, l.MaskExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(base, l.CasePrefix), l.MaskExt)
	if len(digits) != 5 {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return i, true
}
