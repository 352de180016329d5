// Package cluster groups text chunks into themes using a hybrid of semantic
// similarity and research-question relevance.
//
// The pass blends each chunk's semantic embedding with a research
// pseudo-embedding (weighted 0.3/0.7 by default), reduces the blend to a
// low-dimensional neighborhood-preserving space, runs density-based
// clustering with parameters adapted to the dataset size, and finally
// rescues high-relevance points that landed in noise. Everything is
// deterministic for a given embedder.
package cluster
