package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/pkg/types"
)

func TestTriggerSignalExactAndFuzzyMatch(t *testing.T) {
	w := tokenSet("we need to fix the authentication tokens before deploy")
	fired, score := triggerSignal([]string{"authentication token"}, w)
	require.True(t, fired)
	assert.InDelta(t, 0.9, score, 0.01) // "authentication" exact + "token"/"tokens" plural match 0.8
}

func TestTriggerSignalBelowThresholdDoesNotFire(t *testing.T) {
	w := tokenSet("totally unrelated message about lunch plans")
	fired, _ := triggerSignal([]string{"database migration rollback"}, w)
	assert.False(t, fired)
}

func TestTagsSignalThresholdVariesWithTagCount(t *testing.T) {
	w := tokenSet("talking about caching and retries today")
	fired, count := tagsSignal([]string{"caching", "retries", "latency"}, w, "talking about caching and retries today")
	assert.True(t, fired)
	assert.Equal(t, 2, count)

	firedFew, countFew := tagsSignal([]string{"caching"}, w, "talking about caching and retries today")
	assert.True(t, firedFew)
	assert.Equal(t, 1, countFew)
}

func TestContentSignalRequiresThreeTokenOverlap(t *testing.T) {
	content := "We decided to use postgres with pgvector for similarity search over memories."
	w := tokenSet("considering postgres pgvector similarity options")
	assert.True(t, contentSignal(content, w))

	assert.False(t, contentSignal(content, tokenSet("totally different topic today")))
}

func TestVectorSignalFiresAboveThreshold(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	fired, sim := vectorSignal(a, b)
	assert.True(t, fired)
	assert.InDelta(t, 1.0, sim, 0.001)
}

func TestVectorSignalMissingEmbeddingCannotFire(t *testing.T) {
	fired, sim := vectorSignal(nil, []float32{1, 0, 0})
	assert.False(t, fired)
	assert.Zero(t, sim)
}

func TestComputeSignalsCountsFiredSignals(t *testing.T) {
	m := &types.Memory{
		TriggerPhrases: []string{"connection pool"},
		SemanticTags:   []string{"pool", "database"},
		Domain:         "database",
		Content:        "We sized the connection pool for the database to avoid exhaustion under load during peak traffic.",
	}
	s := ComputeSignals(m, "the connection pool for the database keeps exhausting under load", nil)
	assert.True(t, s.Trigger)
	assert.True(t, s.Tags)
	assert.True(t, s.Domain)
	assert.True(t, s.Content)
	assert.False(t, s.Vector)
	assert.GreaterOrEqual(t, s.Count, 2)
}
