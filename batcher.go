package bilm

import (
	"github.com/feiga/bilm-tf/types"
)

func maxSentenceLength(sentences [][]string) int {
	longest := 0
	for _, sentence := range sentences {
		if len(sentence) > longest {
			longest = len(sentence)
		}
	}
	return longest + 2
}

// TokenBatcher batches tokenized sentences into token id matrices.
type TokenBatcher struct {
	vocab *Vocabulary
}

func NewTokenBatcher(vocab *Vocabulary) *TokenBatcher {
	return &TokenBatcher{vocab: vocab}
}

// BatchSentences encodes each sentence (a list of tokens without <S> or
// </S>) into a [n, longest+2] tensor. Ids are shifted by one so that 0 is
// the padding value.
func (batcher *TokenBatcher) BatchSentences(sentences [][]string) (
	*types.Tensor, error) {
	ids := types.NewTensor(len(sentences), maxSentenceLength(sentences))
	for k, sentence := range sentences {
		encoded, err := batcher.vocab.EncodeTokens(sentence, Identity)
		if err != nil {
			return nil, err
		}
		row := ids.Row(k)
		for pos, id := range encoded {
			row[pos] = int64(id) + 1
		}
	}
	return ids, nil
}

// CharBatcher batches tokenized sentences into character id tensors.
type CharBatcher struct {
	vocab *CharsVocabulary
}

func NewCharBatcher(vocab *CharsVocabulary) *CharBatcher {
	return &CharBatcher{vocab: vocab}
}

// BatchSentences encodes sentences into a [n, longest+2, maxWordLength]
// tensor, shifted by one so that 0 is the padding value.
func (batcher *CharBatcher) BatchSentences(sentences [][]string) (
	*types.Tensor, error) {
	charIDs := types.NewTensor(len(sentences), maxSentenceLength(sentences),
		batcher.vocab.MaxWordLength())
	for k, sentence := range sentences {
		rows, err := batcher.vocab.EncodeTokenChars(sentence, Identity)
		if err != nil {
			return nil, err
		}
		for pos, chars := range rows {
			dst := charIDs.Row(k, pos)
			for c, id := range chars {
				dst[c] = int64(id) + 1
			}
		}
	}
	return charIDs, nil
}
