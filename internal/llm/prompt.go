package llm

import (
	"fmt"
	"strings"

	"github.com/ashutoshrp06/sow-assistant/internal/types"
)

// GroundedSystemPrompt is the system message sent with every grounded answer.
const GroundedSystemPrompt = "You are a helpful assistant that helps people find information."

// AgentSystemPrompt frames the tool-using contract agent.
const AgentSystemPrompt = `You are a contract analyst for Statement-of-Work (SOW) documents.
Use search_tool to find relevant passages before answering questions about the documents.
Use risk_check_tool on document text when the user asks about risks, obligations or red flags.
Only report facts and risks that are present in the tool output. Do not make up risks.
If the documents do not contain the answer, say you don't know.`

const groundedTemplate = `You are an AI assistant that helps users learn from the information found in the source material.
Answer the query using only the sources provided below.
Use bullets if the answer has multiple points.
If the answer is longer than 3 sentences, provide a summary.
Answer ONLY with the facts listed in the list of sources below. Cite your source when you answer the question
If there isn't enough information below, say you don't know.
Do not generate answers that don't use the sources below.
Query: %s
Sources:
%s`

// NoRisksDetected is returned by model-assisted risk analysis when nothing significant is found.
const NoRisksDetected = "No major risks detected"

// RiskCategories are the areas the model-assisted risk check must cover.
var RiskCategories = []string{
	"financial",
	"legal",
	"timeline",
	"scope",
	"operational",
	"compliance",
}

// BuildGroundedPrompt renders the citation-constrained user prompt.
// Output is deterministic for a given query and chunk order.
func BuildGroundedPrompt(query string, chunks []types.Chunk) string {
	return fmt.Sprintf(groundedTemplate, query, FormatSources(chunks))
}

// BuildRiskPrompt renders the structured risk-analysis prompt for SOW content.
func BuildRiskPrompt(content string) string {
	var sb strings.Builder

	sb.WriteString("You are a contract risk analyst reviewing Statement-of-Work (SOW) content.\n")
	sb.WriteString("Identify risks ONLY if they are supported by the content below. Do not make up risks.\n\n")
	sb.WriteString(buildCategoryList())
	sb.WriteString("\nFor every risk found, write a section in this format:\n")
	sb.WriteString("### <Category>: <short title>\n")
	sb.WriteString("- Description: what in the content creates the risk (quote it)\n")
	sb.WriteString("- Impact: what could go wrong for the client or vendor\n")
	sb.WriteString("- Recommendation: how to mitigate or renegotiate\n\n")
	sb.WriteString(fmt.Sprintf("If the content is insufficient, irrelevant, or has no significant risks, reply exactly: %q\n\n", NoRisksDetected))
	sb.WriteString("SOW content:\n")
	sb.WriteString(content)

	return sb.String()
}

// FormatSources renders chunks as "- {chunk} (Source: {title})" lines.
func FormatSources(chunks []types.Chunk) string {
	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		lines = append(lines, fmt.Sprintf("- %s (Source: %s)", c.Chunk, c.Title))
	}
	return strings.Join(lines, "\n")
}

// ─── section builders ─────────────────────────────────────────────────────────

func buildCategoryList() string {
	var sb strings.Builder
	sb.WriteString("Review these risk categories:\n")
	for i, c := range RiskCategories {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, capitalize(c)))
	}
	return sb.String()
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
