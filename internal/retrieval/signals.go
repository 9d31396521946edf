// Package retrieval implements the activation-signal scoring algorithm:
// pre-filter, six independent boolean signals, a relevance gate, additive
// importance scoring, and two-tier global/project selection with backfill
// and per-session dedup. It is a pure function package — no storage or
// network dependency — grounded on internal/engine/search_orchestrator.go's
// SearchOptions/SearchResult/ScoreComponents shape and weighted-factor
// scoring style, adapted from four continuous factors to six independent
// boolean signals per spec §4.2.
package retrieval

import (
	"math"
	"strings"

	"github.com/scrypster/continuity/pkg/types"
)

// vectorSimilarityThreshold is the minimum cosine similarity for the vector
// signal to fire.
const vectorSimilarityThreshold = 0.40

// contentOverlapThreshold is the minimum token-overlap count for the content
// signal to fire.
const contentOverlapThreshold = 3

// contentPrefixChars bounds how much of a memory's content is compared
// against the message for the content signal.
const contentPrefixChars = 200

// Signals holds the six boolean activation signals computed for one
// candidate against one user message, plus the raw scores the importance
// ranking and diagnostics need.
type Signals struct {
	Trigger         bool
	TriggerStrength float64

	Tags     bool
	TagCount int

	Domain  bool
	Feature bool
	Content bool

	Vector           bool
	VectorSimilarity float64

	Count int
}

// ComputeSignals evaluates the six signals from spec §4.2 for m against the
// current user message. queryEmbedding may be nil (missing query embedding
// ⇒ vector signal cannot fire, but every other signal is still evaluated).
func ComputeSignals(m *types.Memory, message string, queryEmbedding []float32) Signals {
	lowerMsg := strings.ToLower(message)
	w := tokenSet(message)

	var s Signals
	s.Trigger, s.TriggerStrength = triggerSignal(m.TriggerPhrases, w)
	s.Tags, s.TagCount = tagsSignal(m.SemanticTags, w, lowerMsg)
	s.Domain = substringOrTokenPresent(m.Domain, w, lowerMsg)
	s.Feature = substringOrTokenPresent(m.Feature, w, lowerMsg)
	s.Content = contentSignal(m.Content, w)
	s.Vector, s.VectorSimilarity = vectorSignal(m.Embedding, queryEmbedding)

	for _, fired := range []bool{s.Trigger, s.Tags, s.Domain, s.Feature, s.Content, s.Vector} {
		if fired {
			s.Count++
		}
	}
	return s
}

// triggerSignal implements spec §4.2 signal 1: for each phrase, split into
// significant words; score = (exact matches + 0.8*singular/plural matches)
// / |significant words|. Fires if any phrase scores >= 0.5.
func triggerSignal(phrases []string, w map[string]bool) (bool, float64) {
	var maxScore float64
	for _, phrase := range phrases {
		words := significantTokens(phrase)
		if len(words) == 0 {
			continue
		}
		var matched float64
		for _, pw := range words {
			if w[pw] {
				matched += 1.0
				continue
			}
			for tok := range w {
				if singularPluralMatch(pw, tok) {
					matched += 0.8
					break
				}
			}
		}
		score := matched / float64(len(words))
		if score > maxScore {
			maxScore = score
		}
	}
	return maxScore >= 0.5, maxScore
}

// tagsSignal implements spec §4.2 signal 2: count of semantic_tags present
// in W or as substring in M. Fires if >= 2, or >= 1 when the memory has <= 2
// tags total.
func tagsSignal(tags []string, w map[string]bool, lowerMsg string) (bool, int) {
	count := 0
	for _, tag := range tags {
		lowerTag := strings.ToLower(tag)
		if w[lowerTag] || strings.Contains(lowerMsg, lowerTag) {
			count++
		}
	}
	threshold := 2
	if len(tags) <= 2 {
		threshold = 1
	}
	return count >= threshold, count
}

// substringOrTokenPresent implements the shared "value present in W or
// substring in M" test used by the domain and feature signals.
func substringOrTokenPresent(value string, w map[string]bool, lowerMsg string) bool {
	if value == "" {
		return false
	}
	lowerVal := strings.ToLower(value)
	return w[lowerVal] || strings.Contains(lowerMsg, lowerVal)
}

// contentSignal implements spec §4.2 signal 5: tokens of the first 200
// chars of content vs. W; fires if overlap >= 3.
func contentSignal(content string, w map[string]bool) bool {
	prefix := content
	if len(prefix) > contentPrefixChars {
		prefix = prefix[:contentPrefixChars]
	}
	overlap := 0
	for tok := range tokenSet(prefix) {
		if w[tok] {
			overlap++
		}
	}
	return overlap >= contentOverlapThreshold
}

// vectorSignal implements spec §4.2 signal 6: cosine similarity of query
// embedding vs. memory embedding >= 0.40. A missing query or memory
// embedding means the signal simply cannot fire.
func vectorSignal(memEmbedding, queryEmbedding []float32) (bool, float64) {
	if len(memEmbedding) == 0 || len(queryEmbedding) == 0 {
		return false, 0
	}
	sim := cosineSimilarity(memEmbedding, queryEmbedding)
	return sim >= vectorSimilarityThreshold, sim
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
