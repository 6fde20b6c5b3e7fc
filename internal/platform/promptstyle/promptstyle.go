package promptstyle

import "strings"

const marker = "EXAMINER_PROMPT_STYLE_V1"

// ApplySystem prepends the shared examiner guidance block to a system prompt.
// Prompts that already carry the block are returned unchanged.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are an impartial academic examiner.")
	b.WriteString("\nJudge only what the student wrote; never credit ideas that are absent.")
	b.WriteString("\nQuote evidence verbatim from the student answer when asked for evidence.")
	if strings.EqualFold(strings.TrimSpace(mode), "json") {
		b.WriteString("\nReturn a single JSON object matching the requested structure, with no prose around it.")
	} else {
		b.WriteString("\nBe concise.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
