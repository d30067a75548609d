package bilm

import (
	"github.com/feiga/bilm-tf/types"
	"github.com/pkg/errors"
)

// slotBuffer holds what is left of the sentence a batch row is reading.
type slotBuffer struct {
	ids   types.Tokens
	chars types.CharRows
}

// BatchAssembler packs a sentence stream into fixed [batchSize, numSteps]
// windows. Every row reads its own sentences end to end, so a sentence that
// does not fit continues in the same row of the next batch.
type BatchAssembler struct {
	stream        SentenceStream
	batchSize     int
	numSteps      int
	maxWordLength int
	slots         []slotBuffer
	done          bool
	err           error
}

// NewBatchAssembler wraps stream. A positive maxWordLength adds the
// tokens_characters input, and requires every sentence to carry char rows
// of that width.
func NewBatchAssembler(stream SentenceStream, batchSize, numSteps,
	maxWordLength int) (*BatchAssembler, error) {
	if batchSize <= 0 || numSteps <= 0 || maxWordLength < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig,
			"batch size %d, steps %d, max word length %d",
			batchSize, numSteps, maxWordLength)
	}
	return &BatchAssembler{
		stream:        stream,
		batchSize:     batchSize,
		numSteps:      numSteps,
		maxWordLength: maxWordLength,
		slots:         make([]slotBuffer, batchSize),
	}, nil
}

func (assembler *BatchAssembler) refill(slot *slotBuffer) (bool, error) {
	sentence, ok, err := assembler.stream.Next()
	if err != nil || !ok {
		return false, err
	}
	if assembler.maxWordLength > 0 {
		if len(sentence.Chars) != len(sentence.IDs) {
			return false, errors.Wrapf(ErrCharsMismatch,
				"%d char rows for %d ids", len(sentence.Chars),
				len(sentence.IDs))
		}
		for _, row := range sentence.Chars {
			if len(row) != assembler.maxWordLength {
				return false, errors.Wrapf(ErrCharsMismatch,
					"row width %d, want %d", len(row),
					assembler.maxWordLength)
			}
		}
	}
	slot.ids = sentence.IDs
	slot.chars = sentence.Chars
	return true, nil
}

// Next returns the next batch, or nil once the stream has ended. The
// window in progress when the stream ends or fails is discarded, and a
// failure is returned again by every later call.
func (assembler *BatchAssembler) Next() (types.Batch, error) {
	if assembler.err != nil {
		return nil, assembler.err
	}
	if assembler.done {
		return nil, nil
	}
	inputs := types.NewTensor(assembler.batchSize, assembler.numSteps)
	targets := types.NewTensor(assembler.batchSize, assembler.numSteps)
	var charInputs *types.Tensor
	if assembler.maxWordLength > 0 {
		charInputs = types.NewTensor(assembler.batchSize, assembler.numSteps,
			assembler.maxWordLength)
	}

	for i := range assembler.slots {
		slot := &assembler.slots[i]
		inputRow := inputs.Row(i)
		targetRow := targets.Row(i)
		for pos := 0; pos < assembler.numSteps; {
			if len(slot.ids) <= 1 {
				ok, err := assembler.refill(slot)
				if err != nil {
					assembler.err = err
					return nil, err
				}
				if !ok {
					assembler.done = true
					return nil, nil
				}
				continue
			}
			howMany := len(slot.ids) - 1
			if remaining := assembler.numSteps - pos; remaining < howMany {
				howMany = remaining
			}
			for k := 0; k < howMany; k++ {
				inputRow[pos+k] = int64(slot.ids[k])
				targetRow[pos+k] = int64(slot.ids[k+1])
			}
			if charInputs != nil {
				for k := 0; k < howMany; k++ {
					dst := charInputs.Row(i, pos+k)
					for c, id := range slot.chars[k] {
						dst[c] = int64(id)
					}
				}
				slot.chars = slot.chars[howMany:]
			}
			slot.ids = slot.ids[howMany:]
			pos += howMany
		}
	}

	batch := types.Batch{
		types.KeyTokenIDs:    inputs,
		types.KeyNextTokenID: targets,
	}
	if charInputs != nil {
		batch[types.KeyTokensCharacters] = charInputs
	}
	return batch, nil
}
