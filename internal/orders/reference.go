package orders

import (
	"context"
	"fmt"
	"math/rand/v2"

	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

// DefaultReferenceAttempts bounds the unique reference search when config leaves it unset.
const DefaultReferenceAttempts = 10

type referenceChecker interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)
}

// RandomReference draws a six digit order reference.
func RandomReference() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// NewReference draws references until one is unused, giving up after attempts tries.
func NewReference(ctx context.Context, repo referenceChecker, attempts int, draw func() string) (string, error) {
	if attempts <= 0 {
		attempts = DefaultReferenceAttempts
	}
	if draw == nil {
		draw = RandomReference
	}
	for i := 0; i < attempts; i++ {
		candidate := draw()
		exists, err := repo.ReferenceExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique order reference").
		WithDetails(map[string]any{"attempts": attempts})
}
