package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/casetrack/internal/models"
)

const (
	// MaxExplainCandidates caps the candidates sent to the provider.
	MaxExplainCandidates = 10
	witnessFallbackRunes = 200
)

// AlertCase is the case data an alert is composed from.
type AlertCase struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Age         string `json:"age,omitempty"`
	LastSeen    string `json:"last_seen,omitempty"`
	Address     string `json:"address,omitempty"`
	BirthMarks  string `json:"birth_marks,omitempty"`
	Phone       string `json:"phone,omitempty"`
	SubmittedBy string `json:"submitted_by,omitempty"`
}

func AlertCaseFromDetail(d models.CaseDetail) AlertCase {
	return AlertCase{
		ID:          d.ID,
		Name:        d.Name,
		Age:         d.Age,
		LastSeen:    d.LastSeen,
		Address:     d.Address,
		BirthMarks:  d.BirthMarks,
		Phone:       d.ComplainantMobile,
		SubmittedBy: d.SubmittedBy,
	}
}

// Alert always carries all three renderings. Fallback is set when they were
// built from the case fields instead of the provider response; Err then
// explains why.
type Alert struct {
	Short    string `json:"short"`
	Long     string `json:"long"`
	Markdown string `json:"markdown"`
	Raw      string `json:"raw,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Err      error  `json:"-"`
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func fallbackAlert(c AlertCase) Alert {
	return Alert{
		Short: fmt.Sprintf("Missing: %s, last seen at %s. Call %s.",
			or(c.Name, "Unknown"), or(c.LastSeen, "unknown"), or(c.Phone, "-")),
		Long: fmt.Sprintf("Missing Person Alert\nName: %s\nLast seen: %s at %s\nAge: %s\nDescription: %s\nContact: %s / %s\n",
			or(c.Name, "Unknown"), or(c.LastSeen, "Unknown"), or(c.Address, "Unknown"),
			or(c.Age, "Unknown"), or(c.BirthMarks, "-"), or(c.SubmittedBy, "-"), or(c.Phone, "-")),
		Markdown: fmt.Sprintf("**Missing: %s**  \nLast seen: %s  \nContact: %s",
			or(c.Name, "Unknown"), or(c.LastSeen, "Unknown"), or(c.Phone, "-")),
		Fallback: true,
	}
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var errMalformed = errors.New("malformed structured response")

// requireStrings decodes obj[key] as a string for every key.
func requireStrings(obj map[string]json.RawMessage, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		raw, ok := obj[k]
		if !ok {
			return nil, fmt.Errorf("%w: missing key %q", errMalformed, k)
		}
		if err := json.Unmarshal(raw, &out[i]); err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", errMalformed, k, err)
		}
	}
	return out, nil
}

// GenerateAlert requests short/long/markdown alert texts. It falls back to a
// template built from c when the provider fails or the response lacks any key.
func (c *Client) GenerateAlert(ctx context.Context, ac AlertCase) Alert {
	res := c.Generate(ctx, "alert", alertPrompt(ac), Params{Temperature: Temp(0.2), MaxTokens: 300, JSON: true})
	if !res.OK() {
		a := fallbackAlert(ac)
		a.Raw = res.String()
		a.Err = res.Err
		return a
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(res.Text)), &obj); err != nil {
		a := fallbackAlert(ac)
		a.Raw = res.Text
		a.Err = &ProviderError{Cause: fmt.Errorf("%w: %v", errMalformed, err)}
		return a
	}
	vals, err := requireStrings(obj, "short", "long", "markdown")
	if err != nil {
		a := fallbackAlert(ac)
		a.Raw = res.Text
		a.Err = &ProviderError{Cause: err}
		return a
	}
	return Alert{Short: vals[0], Long: vals[1], Markdown: vals[2]}
}

// ExplainMatches asks why each candidate may be the missing person.
// Only the first MaxExplainCandidates candidates are sent, in the given order.
func (c *Client) ExplainMatches(ctx context.Context, cs models.CaseDetail, candidates []models.SubmissionDetail) Result {
	if len(candidates) > MaxExplainCandidates {
		candidates = candidates[:MaxExplainCandidates]
	}
	return c.Generate(ctx, "explain_matches", explainPrompt(cs, candidates), Params{Temperature: Temp(0.2), MaxTokens: 400})
}

// WitnessSummary is the structured digest of a witness statement.
type WitnessSummary struct {
	Summary  []string `json:"summary"`
	Persons  []string `json:"persons"`
	Places   []string `json:"places"`
	Times    []string `json:"times"`
	Raw      string   `json:"raw,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
	Err      error    `json:"-"`
}

// Render formats the summary as plain-text bullets for storage.
func (w WitnessSummary) Render() string {
	var b strings.Builder
	for _, s := range w.Summary {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteByte('\n')
	}
	section := func(label string, items []string) {
		if len(items) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(items, ", "))
		}
	}
	section("Persons", w.Persons)
	section("Places", w.Places)
	section("Times", w.Times)
	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func fallbackWitness(statement string) WitnessSummary {
	return WitnessSummary{
		Summary:  []string{truncateRunes(statement, witnessFallbackRunes)},
		Persons:  []string{},
		Places:   []string{},
		Times:    []string{},
		Fallback: true,
	}
}

// SummarizeWitness extracts bullets and entities from a statement. On provider
// failure or an unparseable response the summary is the truncated statement.
func (c *Client) SummarizeWitness(ctx context.Context, statement string) WitnessSummary {
	res := c.Generate(ctx, "summarize_witness", witnessPrompt(statement), Params{Temperature: Temp(0.2), MaxTokens: 300, JSON: true})
	if !res.OK() {
		w := fallbackWitness(statement)
		w.Raw = res.String()
		w.Err = res.Err
		return w
	}

	var parsed struct {
		Summary *[]string `json:"summary"`
		Persons []string  `json:"persons"`
		Places  []string  `json:"places"`
		Times   []string  `json:"times"`
	}
	err := json.Unmarshal([]byte(stripFences(res.Text)), &parsed)
	if err == nil && parsed.Summary == nil {
		err = fmt.Errorf("%w: missing key %q", errMalformed, "summary")
	}
	if err != nil {
		w := fallbackWitness(statement)
		w.Raw = res.Text
		w.Err = &ProviderError{Cause: err}
		return w
	}

	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	return WitnessSummary{
		Summary: *parsed.Summary,
		Persons: nonNil(parsed.Persons),
		Places:  nonNil(parsed.Places),
		Times:   nonNil(parsed.Times),
	}
}

// Lead is one investigative lead to be ranked by the provider.
type Lead struct {
	ID                 string  `json:"id"`
	Score              float64 `json:"score"`
	TimeSecondsAgo     int64   `json:"time_seconds_ago"`
	WitnessReliability float64 `json:"witness_reliability"`
}

// PrioritizeLeads returns the provider's ranking verbatim. No ordering is computed locally.
func (c *Client) PrioritizeLeads(ctx context.Context, leads []Lead) Result {
	return c.Generate(ctx, "prioritize_leads", leadsPrompt(leads), Params{Temperature: Temp(0.2), MaxTokens: 250})
}
