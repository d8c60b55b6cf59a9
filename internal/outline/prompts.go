package outline

import (
	"fmt"
	"strings"
)

// PromptBuilder constructs the planning prompt sent to a generation model.
type PromptBuilder struct{}

func (pb *PromptBuilder) BuildPlanPrompt(title, instruction string, sections []string, totalChars int) string {
	var sb strings.Builder
	sb.WriteString("Role: Document Planner. Task: Propose a per-section writing plan as JSON.\n\n")
	fmt.Fprintf(&sb, "Document title: %s\n", title)
	fmt.Fprintf(&sb, "Total target length: %d characters\n", totalChars)
	if strings.TrimSpace(instruction) != "" {
		fmt.Fprintf(&sb, "User instruction: %s\n", strings.TrimSpace(instruction))
	}
	sb.WriteString("\nSections, in order:\n")
	for _, sec := range sections {
		fmt.Fprintf(&sb, "- %s\n", sec)
	}
	sb.WriteString("\n**INSTRUCTION**:\n")
	sb.WriteString("Return ONLY a JSON object of the form:\n")
	sb.WriteString(`{"sections": [{"title": "...", "target_chars": 800, "key_points": ["..."], "min_tables": 0, "min_figures": 0, "tables": [], "figures": [], "evidence_queries": ["..."]}]}`)
	sb.WriteString("\nRules:\n")
	sb.WriteString("- Use every section title exactly as given, in the given order.\n")
	sb.WriteString("- target_chars values should sum close to the total target length.\n")
	sb.WriteString("- key_points: 2-6 short bullets per section.\n")
	sb.WriteString("- evidence_queries: up to 4 retrieval queries for sections that need sources.\n")
	return sb.String()
}
