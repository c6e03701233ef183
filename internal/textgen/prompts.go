package textgen

import (
	"encoding/json"
	"fmt"

	"github.com/your-org/casetrack/internal/models"
)

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

// RegistrationAlertPrompt asks for a shareable alert for a newly registered case.
func RegistrationAlertPrompt(name, age, lastSeen, birthMarks string) string {
	return fmt.Sprintf(`Create a concise but impactful public missing person alert based on this case:
Name: %s
Age: %s
Last Seen: %s
Birth Marks: %s
Please write in a way suitable for WhatsApp and social media posting.`, name, age, lastSeen, birthMarks)
}

// MatchExplanationPrompt asks why a registered case and a public submission match.
func MatchExplanationPrompt(c models.CaseDetail, s models.SubmissionDetail) string {
	return fmt.Sprintf(`You are an investigator. Based on the following two reports,
explain concisely why these cases are a probable match.

Registered Case: %s
Public Submission: %s`, indentJSON(c), indentJSON(s))
}

// SubmissionSummaryPrompt asks for a law-enforcement summary of a public submission.
func SubmissionSummaryPrompt(s models.SubmissionDetail) string {
	return fmt.Sprintf(`Summarize the witness/public submission details in a clear, concise way for law enforcement.
Public Submission: %s`, indentJSON(s))
}

func alertPrompt(c AlertCase) string {
	return "You are an assistant that composes concise public missing-person alerts for social media " +
		"and formal alerts for police. Keep short version < 200 characters. Provide a longer version " +
		"for formal posting and a markdown suitable for social sharing.\n\n" +
		"Case data:\n" + indentJSON(c) + "\n\n" +
		"Return JSON with keys: short, long, markdown. Only return valid JSON."
}

func explainPrompt(c models.CaseDetail, candidates []models.SubmissionDetail) string {
	return "You are an investigative assistant. Given a registered missing-person case and a list of candidate " +
		"public submissions, write a concise explanation why each candidate may match " +
		"the missing person (2 sentences max each). Then provide 3 recommended next verification steps.\n\n" +
		"Case: " + indentJSON(c) + "\n\n" +
		fmt.Sprintf("Candidates (showing up to %d): ", MaxExplainCandidates) + indentJSON(candidates) +
		"\n\nReturn plain text."
}

func witnessPrompt(statement string) string {
	return "Summarize the following witness statement into 3 concise bullet points, and extract entities: " +
		"people, places, times. Return JSON with keys: summary (list), persons (list), places (list), times (list).\n\n" +
		"Statement:\n" + statement + "\n\nReturn only JSON."
}

func leadsPrompt(leads []Lead) string {
	return "Rank these leads by actionability. Each lead has {id, score (higher is better), time_seconds_ago, " +
		"witness_reliability (0-1)}. Return a short list of ids in recommended order and three-line " +
		"justification for the top lead.\n\n" +
		"Leads:\n" + indentJSON(leads)
}
