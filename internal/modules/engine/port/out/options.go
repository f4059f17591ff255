package out

import (
	"context"

	"vscan/internal/modules/engine/domain"
)

// OptionsSource supplies option patches from outside the process.
type OptionsSource interface {
	// Load returns false when there is nothing to load.
	Load(ctx context.Context) (domain.Patch, bool, error)
	// Watch calls apply with every new version until ctx is done.
	Watch(ctx context.Context, apply func(domain.Patch)) error
}
