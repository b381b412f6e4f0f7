package generate

import "meetscribe/internal/models"

// FallbackMarker prefixes the demo-mode summary so callers and tests can
// recognize a substituted result.
const FallbackMarker = "⚠️ **DEMO MODE (API Key Invalid)**"

const fallbackSummary = FallbackMarker + `

This is a simulated summary because the provided API key was invalid or expired. In a real scenario, this text would be generated by the configured language model based on your transcript.

Key points from the meeting:
- Discussed project timeline and deliverables.
- Identified key stakeholders for the next phase.
- Agreed on a follow-up meeting next Tuesday.`

var fallbackEmails = []string{
	"Subject: Meeting Follow-up - Formal\n\nDear Team,\n\nThank you for your time today. As discussed, we will proceed with the agreed-upon timeline. Please review the attached action items.\n\nBest regards,\n[Your Name]",
	"Subject: Action Items\n\nHi everyone,\n\nGreat meeting! Here's what we need to do next:\n1. Finalize the report.\n2. Contact the vendor.\n\nCheers,\n[Your Name]",
	"Subject: Quick recap\n\nHey team,\n\nThanks for hopping on the call. Just wanted to send a quick note that we are good to go on the new feature. Let's crush it!\n\nBest,\n[Your Name]",
}

// Fallback returns the fixed demo-mode result substituted whenever the
// generation service cannot be reached or its reply cannot be parsed, so
// environments without valid credentials still complete the end-to-end flow.
func Fallback() *models.GenerationResult {
	emails := make([]string, len(fallbackEmails))
	copy(emails, fallbackEmails)
	return &models.GenerationResult{
		Summary: fallbackSummary,
		Emails:  emails,
	}
}
