// Package coverage checks whether the research questions are actually
// answered by the synthesized themes.
//
// For each question it collects the themes that address it, explicitly or
// through a relevance fallback, scores the coverage from theme count,
// confidence distribution and insight quality, flags gaps using the
// question's interrogative form, and produces a capped list of
// recommendations ordered by severity.
package coverage
