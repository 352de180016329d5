package quotes

import "errors"

var (
	// ErrOracleRequired is returned when an oracle is not provided.
	ErrOracleRequired = errors.New("oracle required")
)
