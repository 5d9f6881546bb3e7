package ports

import (
	"context"

	"github.com/bft-labs/radbatch/internal/domain"
)

// StatusRepository handles run status persistence.
// Implementations persist state to disk (or other storage) atomically.
type StatusRepository interface {
	// Load retrieves the last saved status.
	// Returns an empty status and nil error if no status exists.
	// Returns an error only for actual read failures.
	Load(ctx context.Context) (domain.RunStatus, error)

	// Save persists the current status atomically.
	// The implementation should use atomic writes (e.g., write to temp file, then rename)
	// to prevent corruption on crash.
	Save(ctx context.Context, status domain.RunStatus) error
}
