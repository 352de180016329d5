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


// Package ai provides abstractions for the AI services the analysis engine
// consumes but does not implement.
//
// The engine depends on two external capabilities: text embedding and
// structured generation ("the oracle"). This package defines both behind
// interfaces so the domain logic never couples to a concrete backend.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - Oracle: turns a prompt into validated structured JSON via an LLM
//   - Provider: aggregates both services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, openai.NewOracle)
// return INTERFACE types to enforce abstraction. Test utility constructors
// (mock.NewEmbedder, mock.NewOracle) return CONCRETE types to enable test
// assertions and behavior injection via function fields.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "setup took forever")
//	doc, err := provider.Oracle().GenerateStructured(ctx, ai.StructuredRequest{
//	    Prompt:    quotePrompt,
//	    MaxTokens: 800,
//	})
//
// Oracle failures are always representable as errors; the analysis stages
// downgrade them to warnings and empty results rather than aborting sibling
// work.
package ai
