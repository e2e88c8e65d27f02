package workflow

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/services/ai"
)

// Classifier decides the intent of the latest user question
type Classifier struct {
	ai     ai.Service
	logger *logrus.Logger
}

// NewClassifier creates an intent classifier
func NewClassifier(aiService ai.Service, logger *logrus.Logger) *Classifier {
	return &Classifier{ai: aiService, logger: logger}
}

// Classify asks the model for the category of the latest question and
// normalizes the free-text reply into the closed intent set.
func (c *Classifier) Classify(ctx context.Context, history []models.Message, question string) (models.Intent, error) {
	reply, err := c.ai.Generate(ctx, classifierPrompt(buildTranscript(history)), nil, question)
	if err != nil {
		return "", err
	}

	intent, matched := normalizeIntent(reply)
	if !matched {
		c.logger.WithField("reply", reply).Warn("Unrecognized classifier output, falling back to medical")
	}
	return intent, nil
}

// normalizeIntent maps arbitrary model output onto the intent set. The
// reply may carry extra prose, so each canonical token is matched as a
// case-insensitive substring. Unmatched output falls back to the
// general medical handler, which can answer almost anything safely.
func normalizeIntent(reply string) (models.Intent, bool) {
	lower := strings.ToLower(reply)
	for _, intent := range models.Intents {
		if strings.Contains(lower, string(intent)) {
			return intent, true
		}
	}
	return models.IntentMedical, false
}
