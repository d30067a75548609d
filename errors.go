package bilm

import "github.com/pkg/errors"

// Configuration errors are returned before any shard is read.
var (
	ErrUnknownPermutation   = errors.New("unknown permutation")
	ErrUnsupportedFanOut    = errors.New("unsupported number of directions")
	ErrMissingSpecialTokens = errors.New("vocabulary is missing <S>, </S> or <UNK>")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrNoShards             = errors.New("no shards found")
)

// Runtime errors.
var (
	ErrEmptyCorpus   = errors.New("every shard is empty")
	ErrIDOutOfRange  = errors.New("token id out of range")
	ErrCharsMismatch = errors.New("character rows do not match token ids")
)
