package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, Cosine(Vector{1, 0}, Vector{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine(Vector{1, 0}, Vector{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine(Vector{1, 0}, Vector{-1, 0}), 1e-9)

	// Near-duplicate direction scores just under 1.
	score := Cosine(Vector{1, 0}, Vector{0.99, 0.14})
	assert.Greater(t, score, 0.98)
	assert.Less(t, score, 1.0)
}

func TestCosineZeroNorm(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Cosine(Vector{0, 0}, Vector{1, 0}))
	assert.Zero(t, Cosine(Vector{1, 0}, Vector{0, 0}))
	assert.Zero(t, Cosine(nil, nil))
}

func TestCosineLengthMismatch(t *testing.T) {
	t.Parallel()

	// Extra dimensions on one side only contribute to its norm.
	score := Cosine(Vector{1, 0, 0}, Vector{1, 0})
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestVectorIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, Vector{}.IsZero())
	assert.True(t, Vector{0, 0, 0}.IsZero())
	assert.False(t, Vector{0, 1e-12}.IsZero())
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "how do I reset", NormalizeText("  how   do\tI\nreset  "))
	assert.Equal(t, "", NormalizeText("   \n\t "))
}

func TestFingerprintIgnoresWhitespaceShape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Fingerprint("how do I reset"), Fingerprint("  how   do\nI reset "))
	assert.NotEqual(t, Fingerprint("how do I reset"), Fingerprint("how do I restart"))
	assert.Len(t, Fingerprint("x"), 64)
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	records := []QARecord{
		{ID: 1, Question: "first question", Answer: "a"},
		{ID: 2, Question: "second question", Answer: "b"},
	}

	base := ContentHash(records)
	assert.Equal(t, base, ContentHash(records))

	edited := []QARecord{records[0], {ID: 2, Question: "second question changed", Answer: "b"}}
	assert.NotEqual(t, base, ContentHash(edited))

	// Answers never feed the hash; only question text does.
	answerOnly := []QARecord{records[0], {ID: 2, Question: "second question", Answer: "other"}}
	assert.Equal(t, base, ContentHash(answerOnly))

	reordered := []QARecord{records[1], records[0]}
	assert.NotEqual(t, base, ContentHash(reordered))
}

func TestNextRecordID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RecordID(1), NextRecordID(nil))
	assert.Equal(t, RecordID(8), NextRecordID([]QARecord{{ID: 3}, {ID: 7}, {ID: 2}}))
}
