package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/config"
	"github.com/mosefak/medchat/internal/i18n"
	"github.com/mosefak/medchat/internal/middleware"
	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/services/ai"
	"github.com/mosefak/medchat/internal/services/query"
	"github.com/mosefak/medchat/internal/store"
)

// fakeAI scripts classifier and generation replies per call
type fakeAI struct {
	replies []string
	calls   int
	prompts []string
	err     error
}

func (f *fakeAI) Generate(ctx context.Context, system string, history []models.Message, prompt string) (string, error) {
	f.prompts = append(f.prompts, system)
	if f.err != nil {
		return "", f.err
	}
	if f.calls >= len(f.replies) {
		return "", nil
	}
	reply := f.replies[f.calls]
	f.calls++
	return reply, nil
}

func (f *fakeAI) Translate(ctx context.Context, text string) (string, error) {
	return "translated: " + text, nil
}

// fakeRetriever returns a fixed passage for every index
type fakeRetriever struct {
	passage string
}

func (f *fakeRetriever) Context(index, q string, limit int) (string, error) {
	return f.passage, nil
}

func (f *fakeRetriever) Rebuild(index string, texts []string) {}

// fakeExecutor returns a scripted result and records candidates
type fakeExecutor struct {
	result     query.Result
	candidates []string
}

func (f *fakeExecutor) Execute(ctx context.Context, candidate string, identity models.Identity) query.Result {
	f.candidates = append(f.candidates, candidate)
	return f.result
}

// fakeDirectory serves a static overview
type fakeDirectory struct{}

func (fakeDirectory) Overview(ctx context.Context, identity models.Identity) string {
	return "Dr. Ahmed Hassan is working on Monday at Main St, Cairo, Egypt, specializes in Cardiology"
}

func (fakeDirectory) ProperNouns(ctx context.Context, identity models.Identity) []string {
	return []string{"Cardiology", "Cairo"}
}

func testLocalizer(t *testing.T) *i18n.Localizer {
	t.Helper()
	loc, err := i18n.NewLocalizer(&config.I18nConfig{
		DefaultLanguage: "en",
		Languages:       []string{"en", "ar"},
		Directory:       "../../configs/i18n",
	})
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	cfg := &config.Config{}
	cfg.Threads.Type = "memory"
	cfg.Threads.Memory.DefaultExpiration = time.Hour
	cfg.Threads.Memory.CleanupInterval = time.Hour

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	m, err := store.NewManager(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newEngine(t *testing.T, aiSvc *fakeAI, exec QueryExecutor) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewEngine(
		aiSvc,
		&fakeRetriever{passage: "Cardiology, Cairo"},
		exec,
		fakeDirectory{},
		testStore(t),
		testLocalizer(t),
		middleware.NewMetrics(),
		logger,
		6,
	)
}

var patient = models.Identity{UserID: "42", Role: models.RolePatient}

func TestNormalizeIntent(t *testing.T) {
	tests := []struct {
		reply   string
		want    models.Intent
		matched bool
	}{
		{"query_related", models.IntentQuery, true},
		{"The category is 'medical_related'.", models.IntentMedical, true},
		{"DOCTOR_RECOMMENDATION_RELATED", models.IntentRecommendation, true},
		{"system_flow_related", models.IntentSystemFlow, true},
		{"out_of_scope", models.IntentOutOfScope, true},
		{"banana", models.IntentMedical, false},
		{"", models.IntentMedical, false},
	}
	for _, tt := range tests {
		got, matched := normalizeIntent(tt.reply)
		if got != tt.want || matched != tt.matched {
			t.Errorf("normalizeIntent(%q) = (%v, %v), want (%v, %v)", tt.reply, got, matched, tt.want, tt.matched)
		}
	}
}

func TestQueryTurnNoResults(t *testing.T) {
	// Scenario: a patient question that produces a valid query with no
	// matching rows should end in polite prose, never a SQL error.
	aiSvc := &fakeAI{replies: []string{
		"query_related",
		"```sql\nSELECT COUNT(*) FROM Appointments WHERE AppUserId = 42\n```",
		"You have no appointments scheduled at the moment.",
	}}
	exec := &fakeExecutor{result: query.Result{Rows: [][]any{}}}
	engine := newEngine(t, aiSvc, exec)

	answer := engine.Run(context.Background(), "t1", "How many appointments do I have?", patient)

	if strings.Contains(answer, "error") || strings.Contains(answer, "SQL") {
		t.Errorf("expected polite answer, got %q", answer)
	}
	if answer != "You have no appointments scheduled at the moment." {
		t.Errorf("unexpected answer %q", answer)
	}
	if len(exec.candidates) != 1 || strings.Contains(exec.candidates[0], "```") {
		t.Errorf("expected fence-stripped candidate, got %v", exec.candidates)
	}
}

func TestQueryTurnBlockedByPolicy(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{
		"query_related",
		"DROP TABLE Appointments",
	}}
	exec := &fakeExecutor{result: query.Result{Err: &query.ResultError{
		Kind:    query.KindPolicyViolation,
		Summary: "Blocked due to security policy",
		Details: "DROP operations are not allowed",
	}}}
	engine := newEngine(t, aiSvc, exec)

	answer := engine.Run(context.Background(), "t2", "Please drop the appointments table", patient)

	if !strings.Contains(answer, "policy") {
		t.Errorf("expected policy message, got %q", answer)
	}
	// Answer generation must not run after a blocked query
	if aiSvc.calls != 2 {
		t.Errorf("expected 2 AI calls, got %d", aiSvc.calls)
	}
}

func TestQueryTurnSentinel(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{
		"query_related",
		"Not Available",
		"I did not find that information in our records.",
	}}
	exec := &fakeExecutor{result: query.Result{Notice: query.NoDataNotice}}
	engine := newEngine(t, aiSvc, exec)

	answer := engine.Run(context.Background(), "t3", "What is my blood type?", patient)
	if answer != "I did not find that information in our records." {
		t.Errorf("unexpected answer %q", answer)
	}
	// The notice must flow into the answer prompt
	last := aiSvc.prompts[len(aiSvc.prompts)-1]
	if !strings.Contains(last, query.NoDataNotice) {
		t.Errorf("expected notice in answer prompt, got %q", last)
	}
}

func TestQueryTurnDatabaseUnavailable(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{
		"query_related",
		"SELECT * FROM Appointments",
	}}
	exec := &fakeExecutor{result: query.Result{Err: &query.ResultError{
		Kind:    query.KindTransient,
		Summary: "error",
		Details: "Database is temporarily unavailable",
	}}}
	engine := newEngine(t, aiSvc, exec)

	answer := engine.Run(context.Background(), "t4", "Show my appointments", patient)
	if !strings.Contains(answer, "database") {
		t.Errorf("expected database unavailable message, got %q", answer)
	}
}

func TestArabicMedicalTurn(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{
		"medical_related",
		"مرض السكري حالة مزمنة تؤثر على مستوى السكر في الدم.",
	}}
	engine := newEngine(t, aiSvc, &fakeExecutor{})

	answer := engine.Run(context.Background(), "t5", "ما هي أعراض مرض السكري؟", patient)

	if !strings.Contains(answer, "السكري") {
		t.Errorf("expected Arabic answer, got %q", answer)
	}
	if strings.Contains(answer, "I can only help") {
		t.Error("Arabic turn must not carry the English canned template")
	}
	// The medical prompt must request an Arabic response
	var medicalPromptSeen bool
	for _, p := range aiSvc.prompts {
		if strings.Contains(p, "Respond in Arabic") {
			medicalPromptSeen = true
		}
	}
	if !medicalPromptSeen {
		t.Error("expected medical prompt requesting Arabic response")
	}
}

func TestUnrecognizedClassifierOutputFallsBack(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{
		"the weather is nice",
		"General health advice answer.",
	}}
	engine := newEngine(t, aiSvc, &fakeExecutor{})

	answer := engine.Run(context.Background(), "t6", "Tell me something", patient)
	if answer != "General health advice answer." {
		t.Errorf("expected fallback to medical handler, got %q", answer)
	}
}

func TestOutOfScopeTurn(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{"out_of_scope"}}
	engine := newEngine(t, aiSvc, &fakeExecutor{})

	answer := engine.Run(context.Background(), "t7", "Who won the match yesterday?", patient)
	if !strings.Contains(answer, "health") {
		t.Errorf("expected out-of-scope redirection, got %q", answer)
	}
	if aiSvc.calls != 1 {
		t.Errorf("out-of-scope turn must not invoke generation, got %d calls", aiSvc.calls)
	}
}

func TestMissingIdentity(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{"query_related"}}
	engine := newEngine(t, aiSvc, &fakeExecutor{})

	answer := engine.Run(context.Background(), "t8", "Show my data", models.Identity{UserID: "", Role: models.RolePatient})
	if !strings.Contains(answer, "account") {
		t.Errorf("expected missing identity message, got %q", answer)
	}
	if aiSvc.calls != 0 {
		t.Errorf("missing identity must short-circuit before classification, got %d calls", aiSvc.calls)
	}
}

func TestRecommendationTurnUsesDirectory(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{
		"doctor_recommendation_related",
		"For chest pain you should see a Cardiologist such as Dr. Ahmed Hassan.",
	}}
	engine := newEngine(t, aiSvc, &fakeExecutor{})

	answer := engine.Run(context.Background(), "t9", "I have chest pain, which doctor should I see?", patient)
	if !strings.Contains(answer, "Cardiologist") {
		t.Errorf("unexpected answer %q", answer)
	}
	last := aiSvc.prompts[len(aiSvc.prompts)-1]
	if !strings.Contains(last, "Ahmed Hassan") {
		t.Error("expected directory overview inside the recommendation prompt")
	}
}

func TestQuotaExceededFallback(t *testing.T) {
	aiSvc := &fakeAI{err: ai.ErrQuotaExceeded}
	engine := newEngine(t, aiSvc, &fakeExecutor{})

	answer := engine.Run(context.Background(), "t11", "What are the symptoms of flu?", patient)
	if !strings.Contains(answer, "service limit") {
		t.Errorf("expected quota message, got %q", answer)
	}
}

func TestTranscriptPersistsAcrossTurns(t *testing.T) {
	aiSvc := &fakeAI{replies: []string{
		"medical_related",
		"First answer.",
		"medical_related",
		"Second answer.",
	}}
	engine := newEngine(t, aiSvc, &fakeExecutor{})

	engine.Run(context.Background(), "t10", "First question", patient)
	engine.Run(context.Background(), "t10", "Second question", patient)

	// The second classification prompt must carry the first exchange
	var found bool
	for _, p := range aiSvc.prompts {
		if strings.Contains(p, "First question") && strings.Contains(p, "First answer.") {
			found = true
		}
	}
	if !found {
		t.Error("expected prior turn in a later prompt transcript")
	}
}
