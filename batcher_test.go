package bilm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var batchSentences = [][]string{
	{"the", "cat", "sat", "."},
	{"mat"},
}

func TestTokenBatcher(t *testing.T) {
	vocab := loadTestVocab(t)
	batcher := NewTokenBatcher(vocab)
	ids, err := batcher.BatchSentences(batchSentences)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 6}, ids.Shape)

	shifted := func(word string) int64 {
		return int64(vocab.WordToID(word)) + 1
	}
	assert.Equal(t, []int64{shifted(BosWord), shifted("the"), shifted("cat"),
		shifted("sat"), shifted("."), shifted(EosWord)}, ids.Row(0))
	assert.Equal(t, []int64{shifted(BosWord), shifted("mat"),
		shifted(EosWord), 0, 0, 0}, ids.Row(1))
	assert.Equal(t, []int64{1, 1, 1, 0, 0, 0}, ids.Mask().Row(1))
}

func TestCharBatcher(t *testing.T) {
	chars := loadTestChars(t, 5)
	batcher := NewCharBatcher(chars)
	charIDs, err := batcher.BatchSentences(batchSentences)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 6, 5}, charIDs.Shape)

	assert.Equal(t, []int64{int64(BowChar) + 1, int64(BosChar) + 1,
		int64(EowChar) + 1, int64(PadChar) + 1, int64(PadChar) + 1},
		charIDs.Row(1, 0))
	assert.Equal(t, []int64{int64(BowChar) + 1, 'm' + 1, 'a' + 1, 't' + 1,
		int64(EowChar) + 1}, charIDs.Row(1, 1))
	assert.Equal(t, []int64{0, 0, 0, 0, 0}, charIDs.Row(1, 3))
	assert.Equal(t, []int64{1, 1, 1, 0, 0, 0}, charIDs.Mask().Row(1))
}

func TestBatchersEmptyInput(t *testing.T) {
	ids, err := NewTokenBatcher(loadTestVocab(t)).BatchSentences(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, ids.Shape)

	charIDs, err := NewCharBatcher(loadTestChars(t, 4)).BatchSentences(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, charIDs.Shape)
}
