package feedrank

import "github.com/kailas-cloud/feedrank/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrProviderTimeout        = domain.ErrProviderTimeout
	ErrDegenerateVector       = domain.ErrDegenerateVector
	ErrMalformedQuery         = domain.ErrMalformedQuery
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrInvalidVector          = domain.ErrInvalidVector
	ErrInvalidInput           = domain.ErrInvalidInput
)
