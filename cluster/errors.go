package cluster

import "errors"

var (
	// ErrScorerRequired is returned when a relevance scorer is not provided.
	ErrScorerRequired = errors.New("relevance scorer required")
)
