package bilm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/feiga/bilm-tf/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCorpus writes a vocabulary and shards into a temporary directory and
// returns the vocabulary path and the shard pattern.
func writeCorpus(t testing.TB, vocabLines []string,
	shards map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	vocabFile := filepath.Join(dir, "vocab.txt")
	content := ""
	for _, line := range vocabLines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(vocabFile, []byte(content), 0644))
	shardDir := filepath.Join(dir, "shards")
	require.NoError(t, os.MkdirAll(shardDir, 0755))
	for name, data := range shards {
		require.NoError(t, os.WriteFile(filepath.Join(shardDir, name),
			[]byte(data), 0644))
	}
	return vocabFile, filepath.Join(shardDir, "*")
}

var abVocab = []string{"a", "b", BosWord, EosWord, UnkWord}

func TestLMDatasetSingleSentence(t *testing.T) {
	vocabFile, pattern := writeCorpus(t, abVocab,
		map[string]string{"shard.txt": "a b\n"})
	vocab, err := NewVocabulary(vocabFile, true)
	require.NoError(t, err)
	bos, eos := vocab.Bos(), vocab.Eos()
	a, b := vocab.WordToID("a"), vocab.WordToID("b")

	dataset, err := NewLMDataset(pattern, vocab, Identity,
		DatasetOptions{Seed: 1}, nil)
	require.NoError(t, err)
	batches, err := dataset.IterBatches(1, 4)
	require.NoError(t, err)
	batch, err := batches.Next()
	require.NoError(t, err)
	assert.Equal(t, idRow(bos, a, b, bos), batch[types.KeyTokenIDs].Row(0))
	assert.Equal(t, idRow(a, b, eos, a), batch[types.KeyNextTokenID].Row(0))
}

func TestLMDatasetTestModeEnds(t *testing.T) {
	vocabFile, pattern := writeCorpus(t, abVocab,
		map[string]string{"shard.txt": "a b\n"})
	vocab, err := NewVocabulary(vocabFile, true)
	require.NoError(t, err)

	dataset, err := NewLMDataset(pattern, vocab, Identity,
		DatasetOptions{Test: true}, nil)
	require.NoError(t, err)
	batches, err := dataset.IterBatches(1, 2)
	require.NoError(t, err)

	batch, err := batches.Next()
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, idRow(vocab.Bos(), vocab.WordToID("a")),
		batch[types.KeyTokenIDs].Row(0))

	batch, err = batches.Next()
	assert.NoError(t, err)
	assert.Nil(t, batch)
	assert.Equal(t, StreamExhausted, dataset.Stream().State())
}

func TestBidirectionalDataset(t *testing.T) {
	vocabFile, pattern := writeCorpus(t, abVocab,
		map[string]string{"shard.txt": "a b\n"})
	vocab, err := NewVocabulary(vocabFile, true)
	require.NoError(t, err)

	dataset, err := NewBidirectionalDataset(pattern, vocab,
		DatasetOptions{Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, []Permutation{Identity, Reverse}, dataset.Directions())
	batches, err := dataset.IterBatches(1, 4)
	require.NoError(t, err)
	batch, err := batches.Next()
	require.NoError(t, err)

	require.Contains(t, batch, "token_ids")
	require.Contains(t, batch, "token_ids_reverse")
	assert.Contains(t, batch, "next_token_id_reverse")
	assert.Len(t, batch, 4)
	assert.Equal(t, batch["token_ids"].Shape, batch["token_ids_reverse"].Shape)

	bos, eos := vocab.Bos(), vocab.Eos()
	a, b := vocab.WordToID("a"), vocab.WordToID("b")
	assert.Equal(t, idRow(eos, b, a, eos), batch["token_ids_reverse"].Row(0))
	assert.Equal(t, idRow(b, a, bos, b), batch["next_token_id_reverse"].Row(0))
}

func TestMultidirectionalSuffixes(t *testing.T) {
	chars := loadTestChars(t, 6)
	tests := map[int][]string{
		4: {"", "_reverse", "_permuted1", "_permuted2"},
		6: {"", "_reverse", "_permuted1", "_permuted2", "_permuted3",
			"_permuted4"},
		8: {"", "_reverse", "_permuted1", "_permuted2", "_permuted3",
			"_permuted4", "_permuted5", "_permuted6"},
	}
	for fanOut, suffixes := range tests {
		dataset, err := NewMultidirectionalDataset("testdata/data.test", chars,
			fanOut, DatasetOptions{Seed: 5, ShuffleOnLoad: true})
		require.NoError(t, err)
		require.Len(t, dataset.Directions(), fanOut)
		batches, err := dataset.IterBatches(2, 5)
		require.NoError(t, err)
		batch, err := batches.Next()
		require.NoError(t, err)
		assert.Len(t, batch, 3*fanOut)
		for _, suffix := range suffixes {
			assert.Equal(t, []int{2, 5}, batch[types.KeyTokenIDs+suffix].Shape)
			assert.Equal(t, []int{2, 5, 6},
				batch[types.KeyTokensCharacters+suffix].Shape)
			assert.Equal(t, []int{2, 5}, batch[types.KeyNextTokenID+suffix].Shape)
		}
	}
}

func TestMultidirectionalDirectionMarkers(t *testing.T) {
	vocab := loadTestVocab(t)
	dataset, err := NewMultidirectionalDataset("testdata/data.test", vocab, 4,
		DatasetOptions{Test: true})
	require.NoError(t, err)
	batches, err := dataset.IterBatches(1, 3)
	require.NoError(t, err)
	batch, err := batches.Next()
	require.NoError(t, err)

	// Every direction opens its first window with its own start marker.
	for _, p := range dataset.Directions() {
		start, _, err := vocab.Markers(p)
		require.NoError(t, err)
		assert.Equal(t, int64(start),
			batch[types.KeyTokenIDs+DirectionSuffix(p)].At(0, 0), p.String())
	}
	assert.NotNil(t, dataset.Direction(Outward))
	assert.Nil(t, dataset.Direction(Skip2Forward))
}

func TestMultidirectionalStopsWithShortestDirection(t *testing.T) {
	vocab := loadTestVocab(t)
	dataset, err := NewBidirectionalDataset("testdata/data.test", vocab,
		DatasetOptions{Test: true})
	require.NoError(t, err)
	// Drain the reverse stream alone so it ends first.
	for {
		_, ok, err := dataset.Direction(Reverse).Stream().Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	batches, err := dataset.IterBatches(1, 2)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		batch, err := batches.Next()
		assert.NoError(t, err)
		assert.Nil(t, batch)
	}
}

func TestBatchIteratorErrorSticks(t *testing.T) {
	vocab := loadTestVocab(t)
	forward := &sliceStream{sentences: encodeForTest(t, vocab, "the cat"),
		cycle: true}
	first, err := NewBatchAssembler(forward, 1, 3, 0)
	require.NoError(t, err)
	second, err := NewBatchAssembler(&sliceStream{err: ErrEmptyCorpus}, 1, 3,
		0)
	require.NoError(t, err)
	iterator := &BatchIterator{assemblers: []*BatchAssembler{first, second},
		suffixes: []string{"", "_reverse"}}

	_, err = iterator.Next()
	require.True(t, errors.Is(err, ErrEmptyCorpus))
	assert.Contains(t, err.Error(), "_reverse")
	batch, again := iterator.Next()
	assert.Nil(t, batch)
	assert.Equal(t, err, again)
	// The forward direction is not advanced past the failure.
	assert.Equal(t, 1, forward.next)
}

func TestMultidirectionalUnsupportedFanOut(t *testing.T) {
	src := &memorySource{shards: map[string]string{"a": "the\n"}}
	for _, fanOut := range []int{0, 1, 3, 5, 7, 9, 16} {
		_, err := NewMultidirectionalDataset("mem/*", loadTestVocab(t), fanOut,
			DatasetOptions{Source: src})
		assert.True(t, errors.Is(err, ErrUnsupportedFanOut))
	}
	assert.Empty(t, src.reads)
}

func TestDirectionSuffix(t *testing.T) {
	assert.Equal(t, "", DirectionSuffix(Identity))
	assert.Equal(t, "_reverse", DirectionSuffix(Reverse))
	assert.Equal(t, "_permuted1", DirectionSuffix(Inward))
	assert.Equal(t, "_permuted6", DirectionSuffix(Skip3Backward))
}
