package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/thematic/ai"
	"github.com/poiesic/thematic/core"
	"github.com/poiesic/thematic/research"
)

const (
	synthesisSystemPrompt = "You are a UX researcher analyzing interview data"
	synthesisMaxTokens    = 4096
)

// themeResponse is the JSON shape the oracle is asked to produce for one
// cluster. Every field beyond name, summary and insights is optional.
type themeResponse struct {
	ThemeName            string   `json:"theme_name"`
	Summary              string   `json:"summary"`
	KeyInsights          []string `json:"key_insights"`
	AddressedQuestions   []int    `json:"addressed_questions"`
	ResearchImplications string   `json:"research_implications"`
	ActionableFindings   []string `json:"actionable_findings"`
	DirectQuotes         []string `json:"direct_quotes"`
	Confidence           string   `json:"confidence"`
}

// synthesizeThemes produces one theme per cluster via the oracle. A failed
// or malformed synthesis skips the cluster with a warning; the remaining
// clusters still produce themes.
func (p *Pipeline) synthesizeThemes(ctx context.Context, questions *research.QuestionSet, clusters []*core.Cluster) ([]*core.Theme, []string) {
	oracle := p.provider.Oracle()

	var themes []*core.Theme
	var warnings []string

	for _, cl := range clusters {
		theme, err := p.synthesizeCluster(ctx, oracle, questions, cl)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("theme synthesis failed for cluster %d: %v", cl.ID, err))
			p.logger.Warn("cluster skipped during synthesis", "cluster", cl.ID, "error", err)
			continue
		}
		themes = append(themes, theme)
	}

	return themes, warnings
}

func (p *Pipeline) synthesizeCluster(ctx context.Context, oracle ai.Oracle, questions *research.QuestionSet, cl *core.Cluster) (*core.Theme, error) {
	raw, err := oracle.GenerateStructured(ctx, ai.StructuredRequest{
		Prompt:    synthesisPrompt(questions, cl),
		System:    synthesisSystemPrompt,
		MaxTokens: synthesisMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrOracle, err)
	}

	var resp themeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: unexpected synthesis shape: %w", core.ErrOracle, err)
	}
	if resp.ThemeName == "" || resp.Summary == "" {
		return nil, fmt.Errorf("%w: synthesis response missing theme name or summary", core.ErrOracle)
	}

	addressed := resp.AddressedQuestions
	if len(addressed) == 0 {
		addressed = cl.AddressedQuestions
	}

	return &core.Theme{
		Name:                 resp.ThemeName,
		Summary:              resp.Summary,
		KeyInsights:          resp.KeyInsights,
		ResearchImplications: resp.ResearchImplications,
		ActionableFindings:   resp.ActionableFindings,
		SupportingQuotes:     resp.DirectQuotes,
		Confidence:           core.NormalizeConfidence(resp.Confidence),
		AddressedQuestions:   addressed,
	}, nil
}

// synthesisPrompt builds the per-cluster synthesis prompt: the most relevant
// research question (when the cluster addresses one) plus every member chunk
// with speaker attribution.
func synthesisPrompt(questions *research.QuestionSet, cl *core.Cluster) string {
	var sb strings.Builder

	sb.WriteString("Analyze these interview excerpts")
	if len(cl.AddressedQuestions) > 0 {
		sb.WriteString(" as they relate to this research question:\n\nRESEARCH QUESTION: ")
		sb.WriteString(questions.Question(cl.AddressedQuestions[0]))
		sb.WriteString("\n")
	} else {
		sb.WriteString(":\n")
	}

	sb.WriteString("\nEXCERPTS:\n")
	for _, chunk := range cl.Chunks {
		speaker := chunk.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		fmt.Fprintf(&sb, "[%s]: %s\n", speaker, chunk.Text)
	}

	sb.WriteString(`
Extract:
1. The specific pattern these excerpts share (be specific, not generic)
2. The range of opinions (consensus vs. divergent views)
3. Specific concerns or suggestions mentioned
4. Direct quotes that best support your analysis

Return valid JSON with this exact structure:
{
    "theme_name": "Clear, concise theme name",
    "summary": "Brief summary of the key insight",
    "key_insights": ["Insight 1", "Insight 2", "Insight 3"],
    "addressed_questions": [0],
    "research_implications": "What this means for the research goals",
    "actionable_findings": ["Specific recommendation based on responses"],
    "direct_quotes": ["Actual quote 1", "Actual quote 2"],
    "confidence": "high/medium/low"
}

Be specific and evidence-based. Focus on patterns and insights from the data.`)

	return sb.String()
}
