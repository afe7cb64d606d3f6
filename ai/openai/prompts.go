package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/docqa/ai"
)

const answerPromptTemplate = `You answer customer questions using ONLY the knowledge base passages provided below.

Rules:
- Base the answer strictly on the passages. Do not use outside knowledge. Do not hallucinate.
- If the passages do not contain enough evidence to answer the question, reply with exactly: %s
- Be concise and factual. Do not include greetings, preamble, or meta commentary.
- When passages disagree, prefer the most specific one.

Passages:
%s`

// buildAnswerPrompt renders the grounding system prompt with the
// retrieved passages inlined.
func buildAnswerPrompt(passages []string) string {
	var sb strings.Builder
	for i, passage := range passages {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, strings.TrimSpace(passage))
	}
	return fmt.Sprintf(answerPromptTemplate, ai.NoAnswerSentinel, sb.String())
}
