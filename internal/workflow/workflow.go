// Package workflow is the per-turn state machine: classify the incoming
// question, dispatch it to the matching handler, and always come back
// with a user-facing answer in the user's language.
package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/i18n"
	"github.com/mosefak/medchat/internal/middleware"
	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/services/ai"
	"github.com/mosefak/medchat/internal/services/directory"
	"github.com/mosefak/medchat/internal/services/query"
	"github.com/mosefak/medchat/internal/services/retrieval"
	"github.com/mosefak/medchat/internal/services/schema"
	"github.com/mosefak/medchat/internal/sqlguard"
	"github.com/mosefak/medchat/internal/store"
	"github.com/mosefak/medchat/pkg/langdetect"
	"github.com/mosefak/medchat/pkg/logger"
)

// QueryExecutor runs one candidate query for an identity
type QueryExecutor interface {
	Execute(ctx context.Context, candidate string, identity models.Identity) query.Result
}

// Engine routes one question per turn through classification, handling
// and transcript persistence. Every failure mode resolves to a canned
// bilingual message; nothing escapes as an error to the caller.
type Engine struct {
	ai          ai.Service
	retriever   retrieval.Service
	executor    QueryExecutor
	directory   directory.Service
	store       store.Store
	localizer   *i18n.Localizer
	metrics     *middleware.Metrics
	logger      *logrus.Logger
	maxMessages int
}

// NewEngine wires the turn engine
func NewEngine(
	aiService ai.Service,
	retriever retrieval.Service,
	executor QueryExecutor,
	dir directory.Service,
	threadStore store.Store,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
	maxMessages int,
) *Engine {
	return &Engine{
		ai:          aiService,
		retriever:   retriever,
		executor:    executor,
		directory:   dir,
		store:       threadStore,
		localizer:   localizer,
		metrics:     metrics,
		logger:      logger,
		maxMessages: maxMessages,
	}
}

// Run processes one turn and returns the assistant's answer. It never
// returns an error to the caller: every failure becomes a readable
// message in the detected input language.
func (e *Engine) Run(ctx context.Context, threadID, question string, identity models.Identity) (answer string) {
	lang := langdetect.Language(question)
	log := logger.WithRequest(e.logger, threadID, identity.UserID).WithField("role", identity.Role)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Turn handler panicked")
			e.metrics.RecordMessageProcessed("panic")
			answer = e.localizer.Get(lang, i18n.MsgGenericError, nil)
		}
	}()

	if !identity.Complete() {
		log.Warn("Rejecting turn with incomplete identity")
		return e.localizer.Get(lang, i18n.MsgMissingIdentity, nil)
	}

	if err := e.store.Append(ctx, threadID, models.Message{
		Role:      "user",
		Content:   question,
		Timestamp: time.Now(),
	}); err != nil {
		log.WithError(err).Warn("Failed to persist user message")
	}

	history, err := e.store.Tail(ctx, threadID, e.maxMessages)
	if err != nil {
		log.WithError(err).Warn("Failed to load thread history")
	}
	// The latest question is passed to handlers separately
	if n := len(history); n > 0 && history[n-1].Content == question {
		history = history[:n-1]
	}

	classifier := NewClassifier(e.ai, e.logger)
	intent, err := classifier.Classify(ctx, history, question)
	if err != nil {
		return e.fallback(lang, err, log)
	}
	e.metrics.RecordIntent(string(intent))
	log.WithField("intent", intent).Info("Question classified")

	switch intent {
	case models.IntentQuery:
		answer, err = e.handleQuery(ctx, history, question, identity, lang)
	case models.IntentMedical:
		answer, err = e.handleMedical(ctx, history, question, lang)
	case models.IntentRecommendation:
		answer, err = e.handleRecommendation(ctx, history, question, identity)
	case models.IntentSystemFlow:
		answer, err = e.handleSystemFlow(ctx, history, question, lang)
	default:
		answer = e.localizer.Get(lang, i18n.MsgOutOfScope, nil)
	}
	if err != nil {
		return e.fallback(lang, err, log)
	}
	if strings.TrimSpace(answer) == "" {
		answer = e.localizer.Get(lang, i18n.MsgNoResults, nil)
	}

	if err := e.store.Append(ctx, threadID, models.Message{
		Role:      "assistant",
		Content:   answer,
		Timestamp: time.Now(),
	}); err != nil {
		log.WithError(err).Warn("Failed to persist assistant message")
	}

	e.metrics.RecordMessageProcessed("ok")
	return answer
}

// fallback maps a handler error onto the matching canned response
func (e *Engine) fallback(lang string, err error, log *logrus.Entry) string {
	if errors.Is(err, ai.ErrQuotaExceeded) {
		log.Warn("Provider quota exceeded")
		e.metrics.RecordMessageProcessed("quota")
		return e.localizer.Get(lang, i18n.MsgAPIQuotaExceeded, nil)
	}

	log.WithError(err).Error("Turn handler failed")
	e.metrics.RecordMessageProcessed("error")
	return e.localizer.Get(lang, i18n.MsgGenericError, nil)
}

// handleQuery generates a SQL candidate for the user's role, executes
// it through the guarded pipeline and turns the result into prose.
func (e *Engine) handleQuery(ctx context.Context, history []models.Message, question string, identity models.Identity, lang string) (string, error) {
	transcript := buildTranscript(history)
	tablesInfo := schema.ForRole(identity.Role)

	properNouns, err := e.retriever.Context(retrieval.IndexProperNouns, question, retrieval.DefaultTopK)
	if err != nil {
		e.logger.WithError(err).Warn("Proper noun retrieval failed")
		properNouns = ""
	}
	if retrieval.HasApology(properNouns) {
		properNouns = ""
	}

	start := time.Now()
	candidate, err := e.ai.Generate(ctx, sqlPrompt(identity.Role, transcript, tablesInfo, identity.UserID, contextBlock(properNouns)), nil, question)
	e.recordAI("sql_generation", start, err)
	if err != nil {
		return "", err
	}

	res := e.executor.Execute(ctx, sqlguard.StripFence(candidate), identity)

	var sqlResult string
	switch {
	case res.Err != nil:
		e.metrics.RecordQueryError(string(res.Err.Kind))
		switch res.Err.Kind {
		case query.KindPolicyViolation:
			e.metrics.RecordQueryBlocked()
			return e.localizer.Get(lang, i18n.MsgQueryBlocked, nil), nil
		case query.KindPermission:
			return e.localizer.Get(lang, i18n.MsgQueryBlocked, nil), nil
		case query.KindTransient, query.KindConnection:
			return e.localizer.Get(lang, i18n.MsgDatabaseUnavailable, nil), nil
		default:
			// Syntax and object errors flow into answer generation so
			// the user gets an apology, not an error code.
			sqlResult = res.Err.Summary + ": " + res.Err.Details
		}
	case res.Notice != "":
		sqlResult = res.Notice
	case len(res.Rows) == 0:
		sqlResult = "No results found."
	default:
		sqlResult = query.RenderRows(res.Rows)
	}

	start = time.Now()
	answer, err := e.ai.Generate(ctx, answerPrompt(question, sqlResult), nil, question)
	e.recordAI("answer_generation", start, err)
	return answer, err
}

// handleMedical retrieves topical guideline context and answers in the
// user's language. Non-English questions are translated for retrieval
// only; the answer stays in the original language.
func (e *Engine) handleMedical(ctx context.Context, history []models.Message, question, lang string) (string, error) {
	responseLanguage := "English"
	retrievalQuery := question
	if lang == "ar" {
		responseLanguage = "Arabic"
		translated, err := e.ai.Translate(ctx, question)
		if err != nil {
			return "", err
		}
		retrievalQuery = translated
	}

	passages, err := e.retriever.Context(retrieval.IndexMedical, retrievalQuery, retrieval.DefaultTopK)
	if err != nil {
		e.logger.WithError(err).Warn("Medical retrieval failed")
		passages = ""
	}

	contextText := " "
	if passages != "" && !retrieval.HasApology(passages) {
		contextText = "- The Result from our data:\n" + passages
	}

	start := time.Now()
	answer, err := e.ai.Generate(ctx, medicalPrompt(buildTranscript(history), contextText, responseLanguage), nil, question)
	e.recordAI("medical_answer", start, err)
	return answer, err
}

// handleRecommendation matches symptoms against the doctor directory
func (e *Engine) handleRecommendation(ctx context.Context, history []models.Message, question string, identity models.Identity) (string, error) {
	overview := e.directory.Overview(ctx, identity)

	properNouns, err := e.retriever.Context(retrieval.IndexProperNouns, question, retrieval.DefaultTopK)
	if err != nil {
		e.logger.WithError(err).Warn("Proper noun retrieval failed")
		properNouns = ""
	}
	if retrieval.HasApology(properNouns) {
		properNouns = ""
	}

	combined := overview
	if properNouns != "" {
		combined = overview + "\n" + properNouns
	}

	start := time.Now()
	answer, err := e.ai.Generate(ctx, recommendPrompt(buildTranscript(history), contextBlock(combined)), nil, question)
	e.recordAI("recommendation", start, err)
	return answer, err
}

// handleSystemFlow answers application usage questions from the system
// flow knowledge index.
func (e *Engine) handleSystemFlow(ctx context.Context, history []models.Message, question, lang string) (string, error) {
	responseLanguage := "English"
	retrievalQuery := question
	if lang == "ar" {
		responseLanguage = "Arabic"
		translated, err := e.ai.Translate(ctx, question)
		if err != nil {
			return "", err
		}
		retrievalQuery = translated
	}

	passages, err := e.retriever.Context(retrieval.IndexSystemFlow, retrievalQuery, retrieval.DefaultTopK)
	if err != nil {
		e.logger.WithError(err).Warn("System flow retrieval failed")
		passages = ""
	}

	start := time.Now()
	answer, err := e.ai.Generate(ctx, systemFlowPrompt(retrievalQuery, passages, buildTranscript(history), responseLanguage), nil, question)
	e.recordAI("system_flow_answer", start, err)
	return answer, err
}

func (e *Engine) recordAI(purpose string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.RecordAIRequest(purpose, status, time.Since(start))
}
