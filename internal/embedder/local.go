package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/scrypster/continuity/pkg/types"
)

// Local is a deterministic, dependency-free stand-in for the real embedding
// model, which spec §1/§2 explicitly place out of scope ("the core consumes
// a fixed 384-dimensional vector embedder as an opaque dependency"). It
// hashes the input text into a reproducible unit vector of the required
// width, giving every Store/Retrieval Engine code path something real to
// exercise without a network dependency. Production deployments wire Remote
// instead; Local is the zero-config default and the one used by tests.
type Local struct {
	model string
}

func NewLocal() *Local {
	return &Local{model: "local-deterministic-v1"}
}

func (l *Local) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, types.EmbeddingDimension)
	seed := sha256.Sum256([]byte(text))

	state := seed
	var normSq float64
	for i := 0; i < types.EmbeddingDimension; i++ {
		if i%len(state) == 0 && i != 0 {
			state = sha256.Sum256(state[:])
		}
		b := state[i%len(state)]
		v := float32(int(b)-128) / 128.0
		vec[i] = v
		normSq += float64(v) * float64(v)
	}

	norm := float32(math.Sqrt(normSq))
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (l *Local) Model() string { return l.model }
