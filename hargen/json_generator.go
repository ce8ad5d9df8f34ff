package hargen

import (
	"encoding/base64"
	"encoding/json"
	"math/rand"
)

// JSONGenerator creates random JSON bodies with dictionary words
type JSONGenerator struct {
	dict     *Dictionary
	maxDepth int
	maxNodes int
	rng      *rand.Rand
}

// NewJSONGenerator creates a new JSON generator
func NewJSONGenerator(dict *Dictionary, maxDepth, maxNodes int, rng *rand.Rand) *JSONGenerator {
	if maxDepth == 0 {
		maxDepth = 3
	}
	if maxNodes == 0 {
		maxNodes = 10
	}

	return &JSONGenerator{
		dict:     dict,
		maxDepth: maxDepth,
		maxNodes: maxNodes,
		rng:      rng,
	}
}

// GenerateObject creates a random JSON object with dictionary words
func (jg *JSONGenerator) GenerateObject(depth int) map[string]interface{} {
	// at max depth, just create simple key-value pair
	if depth >= jg.maxDepth {
		return map[string]interface{}{
			jg.dict.RandomWord(jg.rng): jg.dict.RandomWord(jg.rng),
		}
	}

	nodeCount := jg.rng.Intn(jg.maxNodes) + 1
	obj := make(map[string]interface{}, nodeCount)

	for i := 0; i < nodeCount; i++ {
		key := jg.dict.RandomWord(jg.rng)

		// 30% chance of nesting deeper if not at max depth
		if depth < jg.maxDepth-1 && jg.rng.Float32() < 0.3 {
			obj[key] = jg.GenerateObject(depth + 1)
		} else {
			obj[key] = jg.dict.RandomWord(jg.rng)
		}
	}

	return obj
}

// GenerateBody returns a marshalled random object.
func (jg *JSONGenerator) GenerateBody() string {
	content, _ := json.Marshal(jg.GenerateObject(0))
	return string(content)
}

// GenerateBlob returns sizeBytes of random data, base64 encoded as HAR stores binary bodies.
func (jg *JSONGenerator) GenerateBlob(sizeBytes int) string {
	data := make([]byte, sizeBytes)
	jg.rng.Read(data)
	return base64.StdEncoding.EncodeToString(data)
}
