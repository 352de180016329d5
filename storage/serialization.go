package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/thematic/core"
)

// MarshalAnalysisRun encodes a run for storage. Runs are write-once and
// read rarely, so the encoding is JSON rather than a binary format.
func MarshalAnalysisRun(run *core.AnalysisRun) ([]byte, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalAnalysisRun decodes a stored run.
func UnmarshalAnalysisRun(data []byte) (*core.AnalysisRun, error) {
	var run core.AnalysisRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &run, nil
}
