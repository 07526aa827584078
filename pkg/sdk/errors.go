package voicematch

import "github.com/kailas-cloud/voicematch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrDuplicateName     = domain.ErrDuplicateName
	ErrNotFound          = domain.ErrNotFound
)

// ValidationError describes which input failed validation. Use errors.As to inspect it.
type ValidationError = domain.ValidationError
