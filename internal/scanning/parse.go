package scanning

import (
	"strings"
)

// transcribePrompt is the shared prompt used by the vision-model backends
const transcribePrompt = `You are an OCR engine. Transcribe every line of text visible in this image exactly as rendered.

Rules:
- Output one line of text per output line, top to bottom
- Keep numbers, punctuation, AM/PM markers and dates exactly as shown
- Do not translate, summarize or correct anything
- Do not add commentary, numbering or markdown
- If there is no text, output nothing`

// parseTranscription splits a vision model's reply into lines
func parseTranscription(text string) []Line {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines = append(lines, Line{Text: line})
	}
	return lines
}
