package compose

import (
	"fmt"
	"strings"

	"github.com/appsage/appsage/retrieve"
)

const promptTemplate = `You are an AI assistant for a mobile app market intelligence platform.
Your task is to answer the user's question based *only* on the context provided below.
Do not use any external knowledge. If the context does not contain the answer, say so.

Context from the knowledge base:
---
%s---

User's Question: %q

Based on the provided context, what is the answer?`

// buildPrompt assembles the grounded prompt: each retrieved insight is
// quoted verbatim, followed by its recommendations when present.
func buildPrompt(qc *retrieve.QueryContext) string {
	var context strings.Builder
	for _, result := range qc.Results {
		fmt.Fprintf(&context, "- Insight: %s\n", result.Insight.Text)
		if len(result.Insight.Recommendations) > 0 {
			fmt.Fprintf(&context, "  - Recommendations: %s\n", strings.Join(result.Insight.Recommendations, " "))
		}
		context.WriteString("\n")
	}

	return fmt.Sprintf(promptTemplate, context.String(), qc.Query)
}
