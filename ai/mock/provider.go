// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/thematic/ai"

// Provider is a test double for ai.Provider.
// It aggregates mock embedder and oracle instances.
type Provider struct {
	embedder *Embedder
	oracle   *Oracle
}

// NewProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use MockEmbedder()/MockOracle() to access concrete types for assertions.
func NewProvider() ai.Provider {
	return &Provider{
		embedder: NewEmbedder(),
		oracle:   NewOracle(),
	}
}

// NewProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewProviderWithServices(embedder *Embedder, oracle *Oracle) ai.Provider {
	return &Provider{
		embedder: embedder,
		oracle:   oracle,
	}
}

// Embedder returns the mock embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Oracle returns the mock oracle.
func (p *Provider) Oracle() ai.Oracle {
	return p.oracle
}

// Close is a no-op for mock provider.
func (p *Provider) Close() error {
	return nil
}

// MockEmbedder returns the underlying mock embedder for test assertions.
func (p *Provider) MockEmbedder() *Embedder {
	return p.embedder
}

// MockOracle returns the underlying mock oracle for test assertions.
func (p *Provider) MockOracle() *Oracle {
	return p.oracle
}
