package research

import "errors"

var (
	// ErrQuestionSetRequired is returned when a question set is not provided.
	ErrQuestionSetRequired = errors.New("question set required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
