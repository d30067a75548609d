package bilm

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/feiga/bilm-tf/resources"
	"github.com/feiga/bilm-tf/types"
	"github.com/lwch/logging"
	"github.com/pkg/errors"
)

// DatasetOptions are shared by every direction of a dataset.
type DatasetOptions struct {
	Test          bool
	ShuffleOnLoad bool
	Source        resources.ShardSource
	// Seed seeds the first direction's generator; direction k uses Seed+k.
	// Zero picks a time-based seed.
	Seed int64
}

// DirectionSuffix is the batch key suffix of a reading direction.
func DirectionSuffix(p Permutation) string {
	switch p {
	case Identity:
		return ""
	case Reverse:
		return "_reverse"
	}
	return "_permuted" + strconv.Itoa(int(p)-1)
}

// LMDataset yields batches read in a single direction.
type LMDataset struct {
	stream *ShardStream
}

// NewLMDataset builds the shard stream for one direction. rng may be nil.
func NewLMDataset(pattern string, vocab SentenceEncoder, p Permutation,
	opts DatasetOptions, rng *rand.Rand) (*LMDataset, error) {
	stream, err := NewShardStream(pattern, vocab, StreamOptions{
		Permutation:   p,
		Test:          opts.Test,
		ShuffleOnLoad: opts.ShuffleOnLoad,
		Source:        opts.Source,
		Rand:          rng,
	})
	if err != nil {
		return nil, err
	}
	return &LMDataset{stream: stream}, nil
}

func (ds *LMDataset) Stream() *ShardStream {
	return ds.stream
}

// IterBatches starts assembling batches. Character inputs are included
// when the vocabulary encodes characters.
func (ds *LMDataset) IterBatches(batchSize, numSteps int) (*BatchAssembler,
	error) {
	return NewBatchAssembler(ds.stream, batchSize, numSteps,
		ds.stream.MaxWordLength())
}

// directionsForFanOut lists the reading directions of a fan-out, primary
// direction first.
func directionsForFanOut(fanOut int) ([]Permutation, error) {
	switch fanOut {
	case 2, 4, 6, 8:
	default:
		return nil, errors.Wrapf(ErrUnsupportedFanOut, "%d", fanOut)
	}
	directions := make([]Permutation, fanOut)
	for k := range directions {
		directions[k] = Permutation(k)
	}
	return directions, nil
}

// MultidirectionalDataset reads the same shards in several directions at
// once, one independent stream per direction.
type MultidirectionalDataset struct {
	directions []Permutation
	datasets   []*LMDataset
}

// NewMultidirectionalDataset builds fanOut directions: forward and reverse,
// then inward/outward, skip2 and skip3 pairs for 4, 6 and 8. A fan-out of 4
// is accepted because it is the default permute_number of the training
// setup.
func NewMultidirectionalDataset(pattern string, vocab SentenceEncoder,
	fanOut int, opts DatasetOptions) (*MultidirectionalDataset, error) {
	directions, err := directionsForFanOut(fanOut)
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logging.Info("Reading %s in %d directions", pattern, fanOut)
	ds := &MultidirectionalDataset{directions: directions}
	for k, p := range directions {
		rng := rand.New(rand.NewSource(seed + int64(k)))
		dataset, err := NewLMDataset(pattern, vocab, p, opts, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "%s direction", p)
		}
		ds.datasets = append(ds.datasets, dataset)
	}
	return ds, nil
}

// NewBidirectionalDataset reads forward and reverse.
func NewBidirectionalDataset(pattern string, vocab SentenceEncoder,
	opts DatasetOptions) (*MultidirectionalDataset, error) {
	return NewMultidirectionalDataset(pattern, vocab, 2, opts)
}

func (ds *MultidirectionalDataset) Directions() []Permutation {
	return ds.directions
}

func (ds *MultidirectionalDataset) Direction(p Permutation) *LMDataset {
	for k, direction := range ds.directions {
		if direction == p {
			return ds.datasets[k]
		}
	}
	return nil
}

// IterBatches starts one assembler per direction.
func (ds *MultidirectionalDataset) IterBatches(batchSize, numSteps int) (
	*BatchIterator, error) {
	iterator := &BatchIterator{}
	for k, dataset := range ds.datasets {
		assembler, err := dataset.IterBatches(batchSize, numSteps)
		if err != nil {
			return nil, err
		}
		iterator.assemblers = append(iterator.assemblers, assembler)
		iterator.suffixes = append(iterator.suffixes,
			DirectionSuffix(ds.directions[k]))
	}
	return iterator, nil
}

// BatchIterator merges one batch per direction into a single batch.
type BatchIterator struct {
	assemblers []*BatchAssembler
	suffixes   []string
	done       bool
	err        error
}

// Next advances every direction in order. It returns nil as soon as any
// direction ends, and keeps returning nil afterwards. An error from any
// direction is returned by this and every later call.
func (iterator *BatchIterator) Next() (types.Batch, error) {
	if iterator.err != nil {
		return nil, iterator.err
	}
	if iterator.done {
		return nil, nil
	}
	merged := types.Batch{}
	for k, assembler := range iterator.assemblers {
		batch, err := assembler.Next()
		if err != nil {
			iterator.err = errors.Wrapf(err, "%s direction",
				iterator.suffixes[k])
			return nil, iterator.err
		}
		if batch == nil {
			iterator.done = true
			return nil, nil
		}
		merged.Merge(batch, iterator.suffixes[k])
	}
	return merged, nil
}
