// Package retrieval provides TF-IDF search over named knowledge
// indexes: the medical guideline corpus, the platform usage corpus and
// a runtime-built index of names that appear in the database.
package retrieval

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/config"
)

// Names of the built-in indexes.
const (
	IndexMedical     = "medical"
	IndexSystemFlow  = "system_flow"
	IndexProperNouns = "proper_nouns"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 5

// sorryWords mark an answer as an apology rather than useful content,
// in English and Arabic.
var sorryWords = []string{"sorry", "عذرًا", "آسف", "نأسف", "متأسف"}

// Service interface for knowledge retrieval operations
type Service interface {
	Context(index, query string, limit int) (string, error)
	Rebuild(index string, texts []string)
}

// Retriever holds the named indexes
type Retriever struct {
	mu      sync.RWMutex
	indexes map[string]*Index
	logger  *logrus.Logger
}

// NewRetriever loads the markdown knowledge directories and prepares
// an empty index for database names to be filled at runtime.
func NewRetriever(cfg *config.KnowledgeConfig, logger *logrus.Logger) (*Retriever, error) {
	r := &Retriever{
		indexes: make(map[string]*Index),
		logger:  logger,
	}

	medical := NewIndex(IndexMedical, logger)
	if err := medical.LoadDirectory(cfg.MedicalDir); err != nil {
		return nil, fmt.Errorf("failed to load medical knowledge: %w", err)
	}
	medical.Build()
	r.indexes[IndexMedical] = medical

	systemFlow := NewIndex(IndexSystemFlow, logger)
	if err := systemFlow.LoadDirectory(cfg.SystemFlowDir); err != nil {
		return nil, fmt.Errorf("failed to load system flow knowledge: %w", err)
	}
	systemFlow.Build()
	r.indexes[IndexSystemFlow] = systemFlow

	r.indexes[IndexProperNouns] = NewIndex(IndexProperNouns, logger)

	return r, nil
}

// Context retrieves the most relevant chunks from the named index and
// joins them into a single prompt-ready block.
func (r *Retriever) Context(index, query string, limit int) (string, error) {
	r.mu.RLock()
	ix, exists := r.indexes[index]
	r.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("unknown index: %s", index)
	}

	if limit <= 0 {
		limit = DefaultTopK
	}

	chunks := ix.Search(query, limit)
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	return strings.Join(parts, "\n\n"), nil
}

// Rebuild replaces the named index contents with the given texts.
// Used to refresh the proper noun index after reading the database.
func (r *Retriever) Rebuild(index string, texts []string) {
	ix := NewIndex(index, r.logger)
	for i, text := range texts {
		ix.AddText(fmt.Sprintf("%s-%d", index, i), text)
	}
	ix.Build()

	r.mu.Lock()
	r.indexes[index] = ix
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"index": index,
		"texts": len(texts),
	}).Info("Index rebuilt")
}

// HasApology reports whether a generated answer is an apology in
// either supported language.
func HasApology(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range sorryWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
