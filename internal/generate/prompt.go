package generate

import "fmt"

// maxTranscriptChars caps how much of the transcript goes into the prompt.
// Oversized uploads are truncated silently; the stored record keeps the full
// text.
const maxTranscriptChars = 10000

const promptTemplate = `You are an expert meeting assistant. Analyze the following meeting transcript and provide:
1. A summary of the meeting (100-150 words).
2. Three distinct follow-up email drafts:
   - Option 1: Formal and detailed.
   - Option 2: Concise and action-oriented.
   - Option 3: Friendly and casual.

Return the output strictly in VALID JSON format with the following structure. Do not include any markdown formatting like ` + "```json ... ```" + `, just the raw JSON string:
{
    "summary": "...",
    "emails": ["Email 1 content...", "Email 2 content...", "Email 3 content..."]
}

Transcript:
%s`

// buildPrompt renders the fixed instruction prompt around the (truncated)
// transcript.
func buildPrompt(transcript string) string {
	return fmt.Sprintf(promptTemplate, truncate(transcript, maxTranscriptChars))
}

// truncate keeps the first n characters (runes, to match how the service
// counts text, not bytes).
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
