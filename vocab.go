package bilm

import (
	"strings"

	"github.com/feiga/bilm-tf/resources"
	"github.com/feiga/bilm-tf/types"
	"github.com/pkg/errors"
)

const (
	BosWord = "<S>"
	EosWord = "</S>"
	UnkWord = "<UNK>"
	// Structural markers appended to every vocabulary, in this order.
	MosWord = "<MD>"
	SosWord = "<SI>"
	S2sWord = "<S2S>"
	S2eWord = "<S2E>"
	S3sWord = "<S3S>"
	S3eWord = "<S3E>"

	maxTermIDWord = "!!!MAXTERMID"
)

// Vocabulary maps tokens to dense ids and wraps encoded sentences in the
// boundary markers of their reading direction.
type Vocabulary struct {
	idToWord []string
	wordToID types.TokenMap

	bos, eos, unk types.Token
	// mos and sos bracket inward/outward sentences, s2s/s2e and s3s/s3e the
	// skip permutations.
	mos, sos types.Token
	s2s, s2e types.Token
	s3s, s3e types.Token
}

// SentenceEncoder turns a pre-tokenized sentence into ids wrapped in the
// markers of a permutation. Tokens must already be in permuted order.
type SentenceEncoder interface {
	EncodeTokens(tokens []string, p Permutation) (types.Tokens, error)
}

// NewVocabulary reads a vocabulary file with one token per line. When
// validate is set, the file must contain <S>, </S> and <UNK>.
func NewVocabulary(path string, validate bool) (*Vocabulary, error) {
	lines, err := resources.ReadLines(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading vocabulary %s", path)
	}
	return NewVocabularyFromLines(lines, validate)
}

// NewVocabularyFromLines builds a Vocabulary from vocabulary file lines.
func NewVocabularyFromLines(lines []string, validate bool) (*Vocabulary,
	error) {
	vocab := &Vocabulary{
		idToWord: make([]string, 0, len(lines)+6),
		wordToID: make(types.TokenMap, len(lines)+6),
		bos:      types.NoToken,
		eos:      types.NoToken,
		unk:      types.NoToken,
	}
	for _, line := range lines {
		word := strings.TrimSpace(line)
		if word == maxTermIDWord {
			continue
		}
		id := vocab.add(word)
		switch word {
		case BosWord:
			vocab.bos = id
		case EosWord:
			vocab.eos = id
		case UnkWord:
			vocab.unk = id
		}
	}
	vocab.mos = vocab.add(MosWord)
	vocab.sos = vocab.add(SosWord)
	vocab.s2s = vocab.add(S2sWord)
	vocab.s2e = vocab.add(S2eWord)
	vocab.s3s = vocab.add(S3sWord)
	vocab.s3e = vocab.add(S3eWord)

	if validate && (vocab.bos == types.NoToken ||
		vocab.eos == types.NoToken || vocab.unk == types.NoToken) {
		return nil, ErrMissingSpecialTokens
	}
	return vocab, nil
}

func (vocab *Vocabulary) add(word string) types.Token {
	id := types.Token(len(vocab.idToWord))
	vocab.idToWord = append(vocab.idToWord, word)
	vocab.wordToID[word] = id
	return id
}

func (vocab *Vocabulary) Bos() types.Token { return vocab.bos }
func (vocab *Vocabulary) Eos() types.Token { return vocab.eos }
func (vocab *Vocabulary) Unk() types.Token { return vocab.unk }
func (vocab *Vocabulary) Mos() types.Token { return vocab.mos }
func (vocab *Vocabulary) Sos() types.Token { return vocab.sos }
func (vocab *Vocabulary) S2s() types.Token { return vocab.s2s }
func (vocab *Vocabulary) S2e() types.Token { return vocab.s2e }
func (vocab *Vocabulary) S3s() types.Token { return vocab.s3s }
func (vocab *Vocabulary) S3e() types.Token { return vocab.s3e }

func (vocab *Vocabulary) Size() int {
	return len(vocab.idToWord)
}

// WordToID returns the id of word, or the unk id.
func (vocab *Vocabulary) WordToID(word string) types.Token {
	if id, ok := vocab.wordToID[word]; ok {
		return id
	}
	return vocab.unk
}

func (vocab *Vocabulary) IDToWord(id types.Token) (string, error) {
	if id < 0 || int(id) >= len(vocab.idToWord) {
		return "", errors.Wrapf(ErrIDOutOfRange, "%d (size %d)", id,
			len(vocab.idToWord))
	}
	return vocab.idToWord[id], nil
}

// Decode converts ids to a space-joined sentence.
func (vocab *Vocabulary) Decode(ids types.Tokens) (string, error) {
	words := make([]string, len(ids))
	for idx, id := range ids {
		word, err := vocab.IDToWord(id)
		if err != nil {
			return "", err
		}
		words[idx] = word
	}
	return strings.Join(words, " "), nil
}

// Markers returns the start and end markers of a permutation.
func (vocab *Vocabulary) Markers(p Permutation) (start, end types.Token,
	err error) {
	switch p {
	case Identity:
		return vocab.bos, vocab.eos, nil
	case Reverse:
		return vocab.eos, vocab.bos, nil
	case Inward:
		return vocab.sos, vocab.mos, nil
	case Outward:
		return vocab.mos, vocab.sos, nil
	case Skip2Forward:
		return vocab.s2s, vocab.s2e, nil
	case Skip2Backward:
		return vocab.s2e, vocab.s2s, nil
	case Skip3Forward:
		return vocab.s3s, vocab.s3e, nil
	case Skip3Backward:
		return vocab.s3e, vocab.s3s, nil
	}
	return types.NoToken, types.NoToken,
		errors.Wrapf(ErrUnknownPermutation, "%s", p)
}

// Encode splits sentence on whitespace and encodes it. The tokens are not
// reordered: callers permute before encoding.
func (vocab *Vocabulary) Encode(sentence string, p Permutation) (
	types.Tokens, error) {
	return vocab.EncodeTokens(strings.Fields(sentence), p)
}

// EncodeTokens encodes an already split sentence.
func (vocab *Vocabulary) EncodeTokens(tokens []string, p Permutation) (
	types.Tokens, error) {
	start, end, err := vocab.Markers(p)
	if err != nil {
		return nil, err
	}
	ids := make(types.Tokens, 0, len(tokens)+2)
	ids = append(ids, start)
	for _, token := range tokens {
		ids = append(ids, vocab.WordToID(token))
	}
	return append(ids, end), nil
}

// LoadVocab loads a validated CharsVocabulary when maxWordLength is
// positive, and a validated word Vocabulary otherwise.
func LoadVocab(path string, maxWordLength int) (SentenceEncoder, error) {
	if maxWordLength > 0 {
		chars, err := NewCharsVocabulary(path, maxWordLength, true)
		if err != nil {
			return nil, err
		}
		return chars, nil
	}
	vocab, err := NewVocabulary(path, true)
	if err != nil {
		return nil, err
	}
	return vocab, nil
}
