// Package mock provides test doubles for the ai package interfaces.
//
// The mocks generate deterministic embeddings (FNV-hashed pseudo-random unit
// vectors) and canned oracle responses, so engine behavior can be tested
// without external AI services. Behavior can be overridden per-test via
// function fields.
package mock
