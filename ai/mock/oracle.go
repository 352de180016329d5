package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/poiesic/thematic/ai"
)

// Oracle is a test double for ai.Oracle.
// It allows custom behavior injection via function fields.
type Oracle struct {
	// GenerateStructuredFunc is called by GenerateStructured if set.
	// If nil, responses are popped from the Responses queue, falling back
	// to an empty quotes document.
	GenerateStructuredFunc func(ctx context.Context, req ai.StructuredRequest) (json.RawMessage, error)

	// Responses is a FIFO queue of canned responses. Once drained, the
	// default empty document is returned.
	Responses []json.RawMessage

	mu        sync.Mutex
	callCount int
	requests  []ai.StructuredRequest
}

// NewOracle creates a mock oracle with default behavior.
// Note: returns concrete type to allow test assertions and injection.
func NewOracle() *Oracle {
	return &Oracle{}
}

// GenerateStructured returns injected behavior, queued responses, or an
// empty quotes document in that order of preference.
func (m *Oracle) GenerateStructured(ctx context.Context, req ai.StructuredRequest) (json.RawMessage, error) {
	m.mu.Lock()
	m.callCount++
	m.requests = append(m.requests, req)
	var queued json.RawMessage
	if m.GenerateStructuredFunc == nil && len(m.Responses) > 0 {
		queued = m.Responses[0]
		m.Responses = m.Responses[1:]
	}
	m.mu.Unlock()

	if m.GenerateStructuredFunc != nil {
		return m.GenerateStructuredFunc(ctx, req)
	}
	if queued != nil {
		return queued, nil
	}
	return json.RawMessage(`{"quotes": []}`), nil
}

// CallCount returns the number of GenerateStructured calls.
func (m *Oracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns a copy of the recorded requests, in call order.
func (m *Oracle) Requests() []ai.StructuredRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.StructuredRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset clears recorded calls and injected behavior.
func (m *Oracle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.requests = nil
	m.Responses = nil
	m.GenerateStructuredFunc = nil
}
