package ports

import (
	"context"

	"github.com/bft-labs/radbatch/internal/domain"
)

// Extractor computes radiomic features for one case.
// It is configured once and then called for every case in the batch.
type Extractor interface {
	// Execute extracts features from the image at imagePath restricted to the
	// region selected by the mask at maskPath. The result preserves the
	// order in which features were computed.
	Execute(ctx context.Context, imagePath, maskPath string) (domain.Result, error)
}
