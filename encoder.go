package bilm

import (
	"github.com/feiga/bilm-tf/types"
	"github.com/pkg/errors"
)

// SequenceEncoder is the recurrent encoder fed by the pipeline. It receives
// ids shifted by one (0 is padding), character ids shifted the same way or
// nil, and the [batch, steps] validity mask, and returns one tensor per
// layer.
type SequenceEncoder interface {
	Encode(tokenIDs, chars, mask *types.Tensor) ([]*types.Tensor, error)
}

func shifted(t *types.Tensor) *types.Tensor {
	out := types.NewTensor(t.Shape...)
	for idx, v := range t.Data {
		out.Data[idx] = v + 1
	}
	return out
}

// EncodeBatch feeds one direction of batch, selected by its key suffix, to
// encoder.
func EncodeBatch(encoder SequenceEncoder, batch types.Batch,
	suffix string) ([]*types.Tensor, error) {
	tokenIDs, ok := batch[types.KeyTokenIDs+suffix]
	if !ok {
		return nil, errors.Errorf("batch has no %s%s", types.KeyTokenIDs,
			suffix)
	}
	ids := shifted(tokenIDs)
	var chars *types.Tensor
	if charIDs, ok := batch[types.KeyTokensCharacters+suffix]; ok {
		chars = shifted(charIDs)
	}
	return encoder.Encode(ids, chars, ids.Mask())
}
