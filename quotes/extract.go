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


package quotes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/poiesic/thematic/ai"
	"github.com/poiesic/thematic/core"
)

const (
	// windowSize and windowOverlap control how long documents are split for
	// oracle calls; consecutive windows share windowOverlap characters so a
	// quote straddling a boundary is still seen whole by one of them.
	windowSize    = 6000
	windowOverlap = 1000

	// earlyStopQuotes ends the window scan once enough evidence has been
	// found, bounding oracle calls on long documents.
	earlyStopQuotes = 4

	// defaultQuoteConfidence fills in when the oracle omits a confidence.
	defaultQuoteConfidence = 0.5

	oracleMaxTokens = 800
)

const extractSystemPrompt = "You are extracting quotes from research transcripts"

// quoteResponse is the shape the oracle is asked to return.
type quoteResponse struct {
	Quotes []struct {
		Text       string   `json:"text"`
		Speaker    string   `json:"speaker"`
		Confidence *float64 `json:"confidence"`
		Context    string   `json:"context"`
	} `json:"quotes"`
}

// extractFromDocument pulls supporting quotes for a theme out of one
// document, windowing long content. Oracle failures for a window degrade to
// zero quotes from that window with a warning.
func (v *Validator) extractFromDocument(ctx context.Context, theme *core.Theme, content, filename string) ([]core.QuoteEvidence, []string) {
	var quotes []core.QuoteEvidence
	var warnings []string

	if len(content) <= windowSize {
		found, err := v.extractFromWindow(ctx, theme, content, filename)
		if err != nil {
			warnings = append(warnings, quoteWarning(theme, filename, err))
			v.logger.Warn("quote extraction failed", "theme", theme.Name, "file", filename, "error", err)
		}
		quotes = found
	} else {
		for start := 0; start < len(content); start += windowSize - windowOverlap {
			end := start + windowSize
			if end > len(content) {
				end = len(content)
			}

			found, err := v.extractFromWindow(ctx, theme, content[start:end], filename)
			if err != nil {
				warnings = append(warnings, quoteWarning(theme, filename, err))
				v.logger.Warn("quote extraction failed",
					"theme", theme.Name, "file", filename, "offset", start, "error", err)
				continue
			}
			quotes = append(quotes, found...)

			if len(quotes) >= earlyStopQuotes {
				break
			}
		}
	}

	if len(quotes) > maxQuotesPerTheme {
		quotes = quotes[:maxQuotesPerTheme]
	}
	return quotes, warnings
}

// extractFromWindow runs one oracle call over a single content window.
func (v *Validator) extractFromWindow(ctx context.Context, theme *core.Theme, window, filename string) ([]core.QuoteEvidence, error) {
	raw, err := v.oracle.GenerateStructured(ctx, ai.StructuredRequest{
		Prompt:    extractPrompt(theme, window),
		System:    extractSystemPrompt,
		MaxTokens: oracleMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrOracle, err)
	}

	var parsed quoteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed quote response: %w", core.ErrOracle, err)
	}

	quotes := make([]core.QuoteEvidence, 0, len(parsed.Quotes))
	for _, q := range parsed.Quotes {
		if q.Text == "" {
			continue
		}
		confidence := defaultQuoteConfidence
		if q.Confidence != nil {
			confidence = *q.Confidence
		}
		quotes = append(quotes, core.QuoteEvidence{
			Text:       q.Text,
			SourceFile: filename,
			Speaker:    q.Speaker,
			Confidence: confidence,
			Context:    q.Context,
		})
	}
	return quotes, nil
}

// extractPrompt builds the oracle request for one theme and window.
func extractPrompt(theme *core.Theme, window string) string {
	return fmt.Sprintf(`You are analyzing interview transcripts to find quotes that support a specific research theme.

THEME: %s
SUMMARY: %s

TRANSCRIPT CONTENT:
%s

Find and extract 2-4 of the most relevant quotes that support this theme. For each quote:
1. It must be verbatim from the transcript
2. It should clearly relate to the theme
3. Include enough context to be meaningful
4. Identify the speaker if possible

Return valid JSON with this structure:
{
    "quotes": [
        {
            "text": "Exact quote from transcript",
            "speaker": "Speaker name or null",
            "confidence": 0.8,
            "context": "Brief context explanation"
        }
    ]
}

Only include quotes that genuinely support the theme. If no relevant quotes exist, return an empty quotes array.`,
		theme.Name, theme.Summary, window)
}

func quoteWarning(theme *core.Theme, filename string, err error) string {
	return fmt.Sprintf("quote extraction failed for theme %q in %s: %v", theme.Name, filename, err)
}
