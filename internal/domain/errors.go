package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a referenced post or user that is absent from the store.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding provider failure (error or timeout).
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrProviderTimeout signals an embedding call that exceeded its deadline.
	// It wraps ErrEmbeddingProviderError.
	ErrProviderTimeout = fmt.Errorf("embedding provider timeout: %w", ErrEmbeddingProviderError)
	// ErrDegenerateVector signals a zero-norm vector in a similarity computation.
	ErrDegenerateVector = errors.New("degenerate vector")
	// ErrMalformedQuery signals a missing or wrongly shaped query vector.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidVector signals an empty, ragged or non-finite vector.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrInvalidInput signals a contract violation such as a negative count.
	ErrInvalidInput = errors.New("invalid input")
)

// KeyPrefix is the default prefix for every key written by feedrank.
const KeyPrefix = "feedrank:"
