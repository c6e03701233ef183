package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/internal/models"
	"github.com/your-org/casetrack/internal/storage"
	"github.com/your-org/casetrack/internal/textgen"
)

// scriptedProvider answers every prompt with reply, or fails with err.
type scriptedProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (p *scriptedProvider) Generate(_ context.Context, _ string, _ textgen.Params) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.reply, p.err
}

// failingWrites wraps a store and rejects every generated-field write.
type failingWrites struct {
	storage.Repository
}

func (f failingWrites) WriteGeneratedField(context.Context, string, models.GeneratedField, string) error {
	return errors.Join(errs.ErrPersistence, errors.New("disk full"))
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.CaseEvent
	err    error
}

func (n *recordingNotifier) PublishCaseEvent(_ context.Context, evt models.CaseEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.err
}

func (n *recordingNotifier) types() []models.CaseEventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.CaseEventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store    *storage.SQLiteStore
	provider *scriptedProvider
	notifier *recordingNotifier
	engine   *Engine
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:    store,
		provider: &scriptedProvider{reply: "generated"},
		notifier: &recordingNotifier{},
	}
	f.engine = NewEngine(store, textgen.NewClient(f.provider, time.Second, textgen.Params{}), f.notifier)
	return f
}

func ashaInput() RegisterCaseInput {
	return RegisterCaseInput{
		SubmittedBy:       "admin",
		Name:              "Asha",
		Age:               "7",
		ComplainantName:   "Ravi",
		ComplainantMobile: "9876543210",
		LastSeen:          "Central Park",
		BirthMarks:        "scar on left hand",
	}
}

func (f *fixture) submit(t *testing.T) string {
	t.Helper()
	id, err := f.engine.SubmitPublic(context.Background(), SubmitPublicInput{
		SubmittedBy: "citizen",
		Location:    "Central Park gate 3",
		Mobile:      "9000000000",
		BirthMarks:  "scar",
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) assertConsistent(t *testing.T, caseIDs ...string) {
	t.Helper()
	for _, id := range caseIDs {
		c, err := f.store.GetRegisteredCase(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.True(t, c.Consistent(), "case %s: status %s matched_with %v", id, c.Status, c.MatchedWith)
	}
}

func TestEndToEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	before, err := f.engine.DashboardCounts(ctx, "admin")
	require.NoError(t, err)

	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	require.NotEmpty(t, reg.CaseID)
	assert.False(t, reg.Degraded())
	assert.Equal(t, "generated", reg.Alert)

	cases, err := f.engine.ListCases(ctx, "admin", models.FilterNotFound)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, reg.CaseID, cases[0].ID)
	assert.Equal(t, "Asha", cases[0].Name)

	mid, err := f.engine.DashboardCounts(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, before.NotFound+1, mid.NotFound)

	subID := f.submit(t)
	out, err := f.engine.ConfirmMatch(ctx, reg.CaseID, subID)
	require.NoError(t, err)
	assert.False(t, out.Degraded())
	assert.Equal(t, "match recorded", out.Message())

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, c.Status)
	require.NotNil(t, c.MatchedWith)
	assert.Equal(t, subID, *c.MatchedWith)
	require.NotNil(t, c.AlertDraft)
	require.NotNil(t, c.MatchExplanation)
	require.NotNil(t, c.WitnessSummary)

	p, err := f.engine.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, p.Status)

	after, err := f.engine.DashboardCounts(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, mid.Found+1, after.Found)
	assert.Equal(t, mid.NotFound-1, after.NotFound)

	f.assertConsistent(t, reg.CaseID)
	assert.Equal(t, []models.CaseEventType{
		models.EventCaseRegistered, models.EventSubmissionReceived, models.EventCaseMatched,
	}, f.notifier.types())
}

func TestRegisterCase_RequiredFields(t *testing.T) {
	f := setup(t)
	for _, mutate := range []func(*RegisterCaseInput){
		func(in *RegisterCaseInput) { in.Name = "" },
		func(in *RegisterCaseInput) { in.ComplainantName = "  " },
		func(in *RegisterCaseInput) { in.ComplainantMobile = "" },
		func(in *RegisterCaseInput) { in.SubmittedBy = "" },
	} {
		in := ashaInput()
		mutate(&in)
		_, err := f.engine.RegisterCase(context.Background(), in)
		assert.ErrorIs(t, err, errs.ErrValidation)
	}

	cases, err := f.engine.ListCases(context.Background(), "", models.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, cases)
	assert.Zero(t, f.provider.calls)
}

func TestRegisterCase_OversizedFieldRejected(t *testing.T) {
	f := setup(t)
	in := ashaInput()
	in.ComplainantMobile = "98765432101234"
	_, err := f.engine.RegisterCase(context.Background(), in)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRegisterCase_ProviderFailureKeepsCase(t *testing.T) {
	f := setup(t)
	f.provider.err = errors.New("quota exceeded")
	ctx := context.Background()

	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	require.True(t, reg.Degraded())
	assert.ErrorIs(t, reg.GenerationErr, errs.ErrGenerationSoft)
	assert.True(t, strings.HasPrefix(reg.Alert, textgen.ErrorPrefix))

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, c.Status)
	assert.Nil(t, c.MatchedWith)
	assert.Nil(t, c.AlertDraft)

	detail, err := f.store.GetRegisteredCaseDetail(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", detail.Name)
}

func TestRegisterCase_NotifierFailureIgnored(t *testing.T) {
	f := setup(t)
	f.notifier.err = errors.New("nats down")
	reg, err := f.engine.RegisterCase(context.Background(), ashaInput())
	require.NoError(t, err)
	assert.NotEmpty(t, reg.CaseID)
}

func TestConfirmMatch_CommitsDespiteProviderFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	subID := f.submit(t)

	f.provider.err = errors.New("timeout")
	out, err := f.engine.ConfirmMatch(ctx, reg.CaseID, subID)
	require.NoError(t, err)
	require.True(t, out.Degraded())
	assert.ErrorIs(t, out.GenerationErr, errs.ErrGenerationSoft)
	assert.Equal(t, "match recorded, generation failed", out.Message())
	assert.False(t, out.Explanation.OK())

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, c.Status)
	require.NotNil(t, c.MatchedWith)
	assert.Equal(t, subID, *c.MatchedWith)
	assert.Nil(t, c.MatchExplanation)

	p, err := f.engine.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, p.Status)
}

func TestConfirmMatch_CommitsDespiteWriteFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	subID := f.submit(t)

	engine := NewEngine(failingWrites{f.store}, textgen.NewClient(f.provider, time.Second, textgen.Params{}), nil)
	out, err := engine.ConfirmMatch(ctx, reg.CaseID, subID)
	require.NoError(t, err)
	require.True(t, out.Degraded())
	assert.ErrorIs(t, out.GenerationErr, errs.ErrGenerationSoft)
	assert.True(t, out.Explanation.OK())

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, c.Status)
}

func TestConfirmMatch_TwiceConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	first := f.submit(t)
	second := f.submit(t)

	_, err = f.engine.ConfirmMatch(ctx, reg.CaseID, first)
	require.NoError(t, err)

	_, err = f.engine.ConfirmMatch(ctx, reg.CaseID, second)
	assert.ErrorIs(t, err, errs.ErrConflict)

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, first, *c.MatchedWith)

	p, err := f.engine.GetSubmission(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, p.Status)
	f.assertConsistent(t, reg.CaseID)
}

func TestConfirmMatch_SubmissionMatchedOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	other := ashaInput()
	other.Name = "Meera"
	b, err := f.engine.RegisterCase(ctx, other)
	require.NoError(t, err)
	subID := f.submit(t)

	_, err = f.engine.ConfirmMatch(ctx, a.CaseID, subID)
	require.NoError(t, err)
	_, err = f.engine.ConfirmMatch(ctx, b.CaseID, subID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	c, err := f.engine.GetCase(ctx, b.CaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, c.Status)
	f.assertConsistent(t, a.CaseID, b.CaseID)
}

func TestConfirmMatch_UnknownIDs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	subID := f.submit(t)

	_, err = f.engine.ConfirmMatch(ctx, "missing", subID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.engine.ConfirmMatch(ctx, reg.CaseID, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.engine.ConfirmMatch(ctx, "", subID)
	assert.ErrorIs(t, err, errs.ErrValidation)

	f.assertConsistent(t, reg.CaseID)
}

func TestConfirmMatch_ConcurrentCallsOneWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	subs := []string{f.submit(t), f.submit(t), f.submit(t), f.submit(t)}

	var wg sync.WaitGroup
	results := make([]error, len(subs))
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub string) {
			defer wg.Done()
			_, results[i] = f.engine.ConfirmMatch(ctx, reg.CaseID, sub)
		}(i, sub)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrConflict)
	}
	assert.Equal(t, 1, wins)

	found, err := f.engine.ListSubmissions(ctx, models.FilterFound, models.ProjectionDisplay)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	f.assertConsistent(t, reg.CaseID)
}

func TestRegenerateAlert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)

	f.provider.reply = `{"short":"s","long":"l","markdown":"**Asha**"}`
	out, err := f.engine.RegenerateAlert(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.False(t, out.Degraded())

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, "**Asha**", *c.AlertDraft)

	f.provider.err = errors.New("down")
	out, err = f.engine.RegenerateAlert(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.True(t, out.Degraded())
	assert.True(t, out.Alert.Fallback)

	c, err = f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, "**Missing: Asha**  \nLast seen: Central Park  \nContact: 9876543210", *c.AlertDraft)

	_, err = f.engine.RegenerateAlert(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListCases_SubmitterSubstring(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)

	cases, err := f.engine.ListCases(ctx, "adm", models.FilterAll)
	require.NoError(t, err)
	assert.Len(t, cases, 1)

	cases, err = f.engine.ListCases(ctx, "zzz", models.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestSummarizeWitness_StoresRendering(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)

	f.provider.reply = `{"summary":["girl seen near gate"],"persons":[],"places":["gate 3"],"times":["6pm"]}`
	ws, err := f.engine.SummarizeWitness(ctx, reg.CaseID, "I saw a girl near gate 3 at 6pm.")
	require.NoError(t, err)
	assert.False(t, ws.Fallback)

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, "- girl seen near gate\nPlaces: gate 3\nTimes: 6pm", *c.WitnessSummary)

	_, err = f.engine.SummarizeWitness(ctx, reg.CaseID, " ")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestPrioritizeLeads(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	leads := []textgen.Lead{{ID: "l1", Score: 0.8, TimeSecondsAgo: 120, WitnessReliability: 0.9}}

	f.provider.reply = "1. l1"
	res, err := f.engine.PrioritizeLeads(ctx, reg.CaseID, leads)
	require.NoError(t, err)
	assert.True(t, res.OK())

	f.provider.err = errors.New("down")
	res, err = f.engine.PrioritizeLeads(ctx, reg.CaseID, leads)
	require.NoError(t, err)
	assert.False(t, res.OK())

	c, err := f.engine.GetCase(ctx, reg.CaseID)
	require.NoError(t, err)
	assert.Equal(t, "1. l1", *c.LeadPriority)

	_, err = f.engine.PrioritizeLeads(ctx, reg.CaseID, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestExplainCandidates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	reg, err := f.engine.RegisterCase(ctx, ashaInput())
	require.NoError(t, err)
	subID := f.submit(t)

	res, err := f.engine.ExplainCandidates(ctx, reg.CaseID, []string{subID})
	require.NoError(t, err)
	assert.Equal(t, "generated", res.Text)

	_, err = f.engine.ExplainCandidates(ctx, reg.CaseID, []string{"missing"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.engine.ExplainCandidates(ctx, "missing", []string{subID})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTrainingCases(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	in := ashaInput()
	in.FaceMesh = `{"mesh":[0.1]}`
	reg, err := f.engine.RegisterCase(ctx, in)
	require.NoError(t, err)

	rows, err := f.engine.TrainingCases(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, reg.CaseID, rows[0].ID)
	assert.Equal(t, `{"mesh":[0.1]}`, rows[0].FaceMesh)

	_, err = f.engine.TrainingCases(ctx, "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}
