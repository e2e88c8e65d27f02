package retrieval

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Chunk is a retrievable unit of text with its originating source.
type Chunk struct {
	ID      string
	Source  string
	Content string
}

// chunkWithScore pairs a chunk with its similarity to a query
type chunkWithScore struct {
	chunk Chunk
	score float32
}

// Index is an in-memory TF-IDF index over text chunks. Documents are
// added or loaded first, then Build computes the vocabulary and chunk
// vectors. Search is safe for concurrent use after Build.
type Index struct {
	name   string
	logger *logrus.Logger

	mu         sync.RWMutex
	chunks     []Chunk
	vocabulary map[string]int
	idf        map[string]float64
	vectors    [][]float32
}

// NewIndex creates an empty index
func NewIndex(name string, logger *logrus.Logger) *Index {
	return &Index{
		name:       name,
		logger:     logger,
		vocabulary: make(map[string]int),
		idf:        make(map[string]float64),
	}
}

// Name returns the index name
func (ix *Index) Name() string {
	return ix.name
}

// AddText appends one chunk to the index. Build must be called again
// before the new chunk becomes searchable.
func (ix *Index) AddText(source, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = append(ix.chunks, Chunk{
		ID:      source,
		Source:  source,
		Content: text,
	})
}

// LoadDirectory loads all markdown files under dir, splitting each file
// into header-delimited chunks.
func (ix *Index) LoadDirectory(dir string) error {
	ix.logger.WithFields(logrus.Fields{
		"index": ix.name,
		"dir":   dir,
	}).Info("Loading knowledge directory")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			ix.logger.WithError(err).WithField("path", path).Warn("Failed to read document")
			return nil
		}

		rel, _ := filepath.Rel(dir, path)
		source := strings.TrimSuffix(rel, filepath.Ext(rel))
		for i, section := range splitSections(string(content)) {
			ix.AddText(source+"#"+strconv.Itoa(i), section)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ix.mu.RLock()
	count := len(ix.chunks)
	ix.mu.RUnlock()
	ix.logger.WithFields(logrus.Fields{
		"index":  ix.name,
		"chunks": count,
	}).Info("Knowledge directory loaded")
	return nil
}

// Build computes the TF-IDF vocabulary and per-chunk vectors
func (ix *Index) Build() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.vocabulary = make(map[string]int)
	ix.idf = make(map[string]float64)

	df := make(map[string]int)
	totalDocs := len(ix.chunks)
	vocabIndex := 0

	for _, chunk := range ix.chunks {
		tokens := tokenize(chunk.Content)
		seen := make(map[string]bool)
		for _, token := range tokens {
			if _, exists := ix.vocabulary[token]; !exists {
				ix.vocabulary[token] = vocabIndex
				vocabIndex++
			}
			if !seen[token] {
				df[token]++
				seen[token] = true
			}
		}
	}

	for token, freq := range df {
		ix.idf[token] = math.Log(float64(totalDocs) / float64(freq))
	}

	ix.vectors = make([][]float32, len(ix.chunks))
	for i, chunk := range ix.chunks {
		ix.vectors[i] = ix.embed(chunk.Content)
	}

	ix.logger.WithFields(logrus.Fields{
		"index":      ix.name,
		"vocabulary": len(ix.vocabulary),
		"vectors":    len(ix.vectors),
	}).Debug("Index built")
}

// Search returns the top chunks most similar to the query
func (ix *Index) Search(query string, limit int) []Chunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	queryVector := ix.embed(query)

	var results []chunkWithScore
	for i, vector := range ix.vectors {
		score := cosineSimilarity(queryVector, vector)
		if score > 0.1 { // Threshold for relevance
			results = append(results, chunkWithScore{chunk: ix.chunks[i], score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	chunks := make([]Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.chunk
	}
	return chunks
}

// embed returns the TF-IDF vector for text. Caller holds at least a
// read lock.
func (ix *Index) embed(text string) []float32 {
	tokens := tokenize(text)
	vector := make([]float32, len(ix.vocabulary))
	if len(tokens) == 0 {
		return vector
	}

	tf := make(map[string]int)
	for _, token := range tokens {
		tf[token]++
	}

	for token, freq := range tf {
		if idx, exists := ix.vocabulary[token]; exists {
			tfValue := float64(freq) / float64(len(tokens))
			vector[idx] = float32(tfValue * ix.idf[token])
		}
	}
	return vector
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// tokenize splits text into tokens (simple word-based tokenization)
func tokenize(text string) []string {
	text = strings.ToLower(text)

	replacer := strings.NewReplacer(
		".", " ", ",", " ", ";", " ", ":", " ",
		"!", " ", "?", " ", "(", " ", ")", " ",
		"[", " ", "]", " ", "{", " ", "}", " ",
		"\"", " ", "'", " ", "-", " ", "_", " ",
		"\n", " ", "\t", " ", "\r", " ",
	)
	text = replacer.Replace(text)

	words := strings.Fields(text)

	var tokens []string
	for _, word := range words {
		if len(word) > 2 && !isNumber(word) {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// isNumber checks if a string is a number
func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// splitSections splits markdown content at headers so each chunk stays
// topically focused. Content before the first header forms its own
// chunk.
func splitSections(content string) []string {
	lines := strings.Split(content, "\n")
	var sections []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sections = append(sections, s)
		}
		current.Reset()
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return sections
}
