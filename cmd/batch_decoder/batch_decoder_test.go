package main

import (
	"strings"
	"testing"

	bilm "github.com/feiga/bilm-tf"
	"github.com/feiga/bilm-tf/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRows(t *testing.T) {
	vocab, err := bilm.NewVocabulary("../../testdata/vocab.test", true)
	require.NoError(t, err)
	tensor := types.NewTensor(2, 3)
	for idx, word := range []string{bilm.BosWord, "the", "cat", "sat",
		bilm.EosWord, bilm.BosWord} {
		tensor.Data[idx] = int64(vocab.WordToID(word))
	}
	bin, err := tensor.ToBin(true)
	require.NoError(t, err)

	var out strings.Builder
	ids, err := types.TensorFromBin(bin, true, 6)
	require.NoError(t, err)
	rows, err := DecodeRows(&out, vocab, ids.Data, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, "<S> the cat\nsat </S> <S>\n", out.String())

	_, err = DecodeRows(&out, vocab, []int64{1, 2}, 3)
	assert.Error(t, err)
	_, err = DecodeRows(&out, vocab, []int64{1}, 0)
	assert.True(t, errors.Is(err, bilm.ErrInvalidConfig))
	_, err = DecodeRows(&out, vocab, []int64{99}, 1)
	assert.True(t, errors.Is(err, bilm.ErrIDOutOfRange))
	_, err = DecodeRows(&out, vocab, []int64{3000000000}, 1)
	assert.True(t, errors.Is(err, bilm.ErrIDOutOfRange))
}
