package bilm

import (
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/feiga/bilm-tf/resources"
	"github.com/feiga/bilm-tf/types"
	"github.com/lwch/logging"
	"github.com/pkg/errors"
)

// EncodedSentence is one sentence in its stream's reading direction. Chars
// is nil unless the vocabulary encodes characters.
type EncodedSentence struct {
	IDs   types.Tokens
	Chars types.CharRows
}

// SentenceStream yields encoded sentences. ok is false once the stream is
// exhausted; only finite streams ever report that.
type SentenceStream interface {
	Next() (sentence EncodedSentence, ok bool, err error)
}

type StreamState uint8

const (
	StreamEmpty StreamState = iota
	StreamLoaded
	StreamExhausted
)

func (state StreamState) String() string {
	switch state {
	case StreamEmpty:
		return "empty"
	case StreamLoaded:
		return "loaded"
	case StreamExhausted:
		return "exhausted"
	}
	return "unknown"
}

// StreamOptions configures a ShardStream.
type StreamOptions struct {
	// Permutation is the reading direction applied to every sentence.
	Permutation Permutation
	// Test streams read every shard once, last listed shard first, then
	// end. Otherwise shards are drawn at random forever.
	Test bool
	// ShuffleOnLoad shuffles the sentences of each shard after loading.
	ShuffleOnLoad bool
	// Source overrides the source resolved from the pattern.
	Source resources.ShardSource
	// Rand drives shard and sentence shuffling. Defaults to a time-seeded
	// generator private to the stream.
	Rand *rand.Rand
}

// ShardStream reads shard files matching a pattern and yields their
// sentences one at a time, encoded in a single reading direction.
type ShardStream struct {
	vocab          SentenceEncoder
	chars          CharEncoder
	source         resources.ShardSource
	pattern        string
	allShards      []string
	shardsToChoose []string
	permutation    Permutation
	test           bool
	shuffleOnLoad  bool
	rng            *rand.Rand

	sentences   []EncodedSentence
	cursor      int
	emptyShards map[string]struct{}
	state       StreamState
	err         error
	LoadedCount int
}

// NewShardStream resolves the shard list for pattern. No shard is read
// until the first call to Next.
func NewShardStream(pattern string, vocab SentenceEncoder,
	opts StreamOptions) (*ShardStream, error) {
	if !opts.Permutation.Valid() {
		return nil, errors.Wrapf(ErrUnknownPermutation, "%s",
			opts.Permutation)
	}
	source := opts.Source
	if source == nil {
		var err error
		if source, err = resources.ResolveSource(pattern); err != nil {
			return nil, err
		}
	}
	shards, err := source.Glob(pattern)
	if err != nil {
		return nil, err
	}
	logging.Info("Found %d shards at %s", len(shards), pattern)
	if len(shards) == 0 && !opts.Test {
		return nil, errors.Wrapf(ErrNoShards, "%s", pattern)
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	stream := &ShardStream{
		vocab:         vocab,
		source:        source,
		pattern:       pattern,
		allShards:     shards,
		permutation:   opts.Permutation,
		test:          opts.Test,
		shuffleOnLoad: opts.ShuffleOnLoad,
		rng:           rng,
		state:         StreamEmpty,
		emptyShards:   make(map[string]struct{}),
	}
	if chars, ok := vocab.(CharEncoder); ok {
		stream.chars = chars
	}
	return stream, nil
}

func (stream *ShardStream) State() StreamState {
	return stream.state
}

func (stream *ShardStream) Permutation() Permutation {
	return stream.permutation
}

// MaxWordLength is the character row width, or 0 without character inputs.
func (stream *ShardStream) MaxWordLength() int {
	if stream.chars == nil {
		return 0
	}
	return stream.chars.MaxWordLength()
}

func (stream *ShardStream) chooseRandomShard() string {
	if len(stream.shardsToChoose) == 0 {
		stream.shardsToChoose = append([]string(nil), stream.allShards...)
		stream.rng.Shuffle(len(stream.shardsToChoose), func(i, j int) {
			stream.shardsToChoose[i], stream.shardsToChoose[j] =
				stream.shardsToChoose[j], stream.shardsToChoose[i]
		})
	}
	last := len(stream.shardsToChoose) - 1
	shardName := stream.shardsToChoose[last]
	stream.shardsToChoose = stream.shardsToChoose[:last]
	return shardName
}

// loadNextShard replaces the loaded sentences with the next shard's. It
// returns false when a test stream has no shards left.
func (stream *ShardStream) loadNextShard() (bool, error) {
	if !stream.test && len(stream.emptyShards) >= len(stream.allShards) {
		return false, errors.Wrapf(ErrEmptyCorpus, "%s", stream.pattern)
	}
	var shardName string
	if stream.test {
		if len(stream.allShards) == 0 {
			stream.state = StreamExhausted
			stream.sentences = nil
			stream.cursor = 0
			return false, nil
		}
		last := len(stream.allShards) - 1
		shardName = stream.allShards[last]
		stream.allShards = stream.allShards[:last]
	} else {
		shardName = stream.chooseRandomShard()
	}

	sentences, err := stream.loadShard(shardName)
	if err != nil {
		return false, err
	}
	if len(sentences) == 0 {
		stream.emptyShards[shardName] = struct{}{}
	} else if len(stream.emptyShards) > 0 {
		stream.emptyShards = make(map[string]struct{})
	}
	stream.sentences = sentences
	stream.cursor = 0
	stream.state = StreamLoaded
	stream.LoadedCount++
	return true, nil
}

func (stream *ShardStream) loadShard(shardName string) ([]EncodedSentence,
	error) {
	shard, err := stream.source.ReadShard(shardName)
	if err != nil {
		return nil, err
	}
	logging.Info("Loading data from: %s (%s)", shardName,
		humanize.Bytes(shard.Size))

	sentences := make([][]string, len(shard.Lines))
	for idx, line := range shard.Lines {
		tokens := strings.Fields(line)
		if stream.permutation != Identity {
			if tokens, err = Permute(tokens, stream.permutation); err != nil {
				return nil, err
			}
		}
		sentences[idx] = tokens
	}
	if stream.shuffleOnLoad {
		stream.rng.Shuffle(len(sentences), func(i, j int) {
			sentences[i], sentences[j] = sentences[j], sentences[i]
		})
	}

	encoded := make([]EncodedSentence, len(sentences))
	for idx, tokens := range sentences {
		ids, encErr := stream.vocab.EncodeTokens(tokens, stream.permutation)
		if encErr != nil {
			return nil, encErr
		}
		encoded[idx].IDs = ids
		if stream.chars != nil {
			charIDs, charErr := stream.chars.EncodeTokenChars(tokens,
				stream.permutation)
			if charErr != nil {
				return nil, charErr
			}
			encoded[idx].Chars = charIDs
		}
	}
	logging.Info("Loaded %d sentences.", len(encoded))
	return encoded, nil
}

// Next returns the sentence at the cursor, loading shards as needed. Empty
// shards are skipped. A training stream fails with ErrEmptyCorpus once every
// shard has loaded empty without a sentence in between. The first error is
// returned again by every later call.
func (stream *ShardStream) Next() (EncodedSentence, bool, error) {
	if stream.err != nil {
		return EncodedSentence{}, false, stream.err
	}
	if stream.state == StreamExhausted {
		return EncodedSentence{}, false, nil
	}
	for stream.cursor >= len(stream.sentences) {
		ok, err := stream.loadNextShard()
		if err != nil {
			logging.Error("Stopping %s stream: %v", stream.permutation, err)
			stream.err = err
			return EncodedSentence{}, false, err
		}
		if !ok {
			return EncodedSentence{}, false, nil
		}
	}
	sentence := stream.sentences[stream.cursor]
	stream.cursor++
	return sentence, true, nil
}
