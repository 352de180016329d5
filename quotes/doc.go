// Package quotes re-validates synthesized themes by grounding them in
// verbatim quotes from the original documents.
//
// Each theme/document pair is handed to the LLM oracle in overlapping
// windows with an early stop once enough evidence is found; extraction
// across documents runs on a bounded worker pool. Per-theme evidence is
// scored on quote count, confidence, speaker diversity and file spread,
// then rolled up into an overall quality label. An oracle failure degrades
// a single pair to zero quotes and never aborts the rest.
package quotes
