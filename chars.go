package bilm

import (
	"strings"

	"github.com/feiga/bilm-tf/resources"
	"github.com/feiga/bilm-tf/types"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Character ids 0-255 are UTF-8 bytes; the special ids follow.
const (
	BosChar int32 = 256 + iota // begin sentence
	EosChar                    // end sentence
	BowChar                    // begin word
	EowChar                    // end word
	PadChar
	MosChar // middle of sentence
	SosChar // side of sentence
	S2sChar
	S2eChar
	S3sChar
	S3eChar

	NumCharacters = int(S3eChar) + 1
)

const OOV_LRU_SZ = 65536

// CharEncoder is implemented by vocabularies that also produce
// character-level rows.
type CharEncoder interface {
	EncodeTokenChars(tokens []string, p Permutation) (types.CharRows, error)
	MaxWordLength() int
}

// CharsVocabulary is a Vocabulary that also maps every token to a
// fixed-width row of character ids: [bow, bytes..., eow, pad...].
type CharsVocabulary struct {
	*Vocabulary
	maxWordLength int
	wordCharIDs   []types.CharIDs
	markerChars   map[int32]types.CharIDs
	oovCache      *lru.ARCCache
	OovHits       int
	OovMisses     int
}

func NewCharsVocabulary(path string, maxWordLength int,
	validate bool) (*CharsVocabulary, error) {
	lines, err := resources.ReadLines(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading vocabulary %s", path)
	}
	return NewCharsVocabularyFromLines(lines, maxWordLength, validate)
}

func NewCharsVocabularyFromLines(lines []string, maxWordLength int,
	validate bool) (*CharsVocabulary, error) {
	if maxWordLength < 3 {
		return nil, errors.Wrapf(ErrInvalidConfig,
			"max word length %d leaves no room for a character",
			maxWordLength)
	}
	vocab, err := NewVocabularyFromLines(lines, validate)
	if err != nil {
		return nil, err
	}
	cache, err := lru.NewARC(OOV_LRU_SZ)
	if err != nil {
		return nil, err
	}
	chars := &CharsVocabulary{
		Vocabulary:    vocab,
		maxWordLength: maxWordLength,
		wordCharIDs:   make([]types.CharIDs, vocab.Size()),
		markerChars:   make(map[int32]types.CharIDs, 8),
		oovCache:      cache,
	}
	for _, c := range []int32{BosChar, EosChar, MosChar, SosChar,
		S2sChar, S2eChar, S3sChar, S3eChar} {
		chars.markerChars[c] = chars.makeMarkerRow(c)
	}
	for id, word := range vocab.idToWord {
		chars.wordCharIDs[id] = chars.convertWordToCharIDs(word)
	}
	// The unk row stays the spelling of the unk token.
	for token, c := range map[types.Token]int32{
		vocab.bos: BosChar, vocab.eos: EosChar,
		vocab.mos: MosChar, vocab.sos: SosChar,
		vocab.s2s: S2sChar, vocab.s2e: S2eChar,
		vocab.s3s: S3sChar, vocab.s3e: S3eChar,
	} {
		if token != types.NoToken {
			chars.wordCharIDs[token] = chars.markerChars[c]
		}
	}
	return chars, nil
}

func (chars *CharsVocabulary) MaxWordLength() int {
	return chars.maxWordLength
}

func (chars *CharsVocabulary) makeMarkerRow(c int32) types.CharIDs {
	row := chars.padRow()
	row[0] = BowChar
	row[1] = c
	row[2] = EowChar
	return row
}

func (chars *CharsVocabulary) padRow() types.CharIDs {
	row := make(types.CharIDs, chars.maxWordLength)
	for idx := range row {
		row[idx] = PadChar
	}
	return row
}

// convertWordToCharIDs keeps at most maxWordLength-2 bytes of the UTF-8
// encoding, which may split a multi-byte rune.
func (chars *CharsVocabulary) convertWordToCharIDs(word string) types.CharIDs {
	row := chars.padRow()
	encoded := []byte(word)
	if len(encoded) > chars.maxWordLength-2 {
		encoded = encoded[:chars.maxWordLength-2]
	}
	row[0] = BowChar
	for k, b := range encoded {
		row[k+1] = int32(b)
	}
	row[len(encoded)+1] = EowChar
	return row
}

// WordToCharIDs returns the row for word. Rows of unknown words are computed
// and kept in a bounded cache apart from the vocabulary table. Returned rows
// are shared and must not be modified.
func (chars *CharsVocabulary) WordToCharIDs(word string) types.CharIDs {
	if id, ok := chars.wordToID[word]; ok {
		return chars.wordCharIDs[id]
	}
	if cached, ok := chars.oovCache.Get(word); ok {
		chars.OovHits++
		return cached.(types.CharIDs)
	}
	chars.OovMisses++
	row := chars.convertWordToCharIDs(word)
	chars.oovCache.Add(word, row)
	return row
}

// CharMarkers returns the start and end rows of a permutation.
func (chars *CharsVocabulary) CharMarkers(p Permutation) (start,
	end types.CharIDs, err error) {
	var startChar, endChar int32
	switch p {
	case Identity:
		startChar, endChar = BosChar, EosChar
	case Reverse:
		startChar, endChar = EosChar, BosChar
	case Inward:
		startChar, endChar = SosChar, MosChar
	case Outward:
		startChar, endChar = MosChar, SosChar
	case Skip2Forward:
		startChar, endChar = S2sChar, S2eChar
	case Skip2Backward:
		startChar, endChar = S2eChar, S2sChar
	case Skip3Forward:
		startChar, endChar = S3sChar, S3eChar
	case Skip3Backward:
		startChar, endChar = S3eChar, S3sChar
	default:
		return nil, nil, errors.Wrapf(ErrUnknownPermutation, "%s", p)
	}
	return chars.markerChars[startChar], chars.markerChars[endChar], nil
}

// EncodeChars splits sentence on whitespace and encodes every token as a
// character row, wrapped in the permutation's marker rows.
func (chars *CharsVocabulary) EncodeChars(sentence string, p Permutation) (
	types.CharRows, error) {
	return chars.EncodeTokenChars(strings.Fields(sentence), p)
}

func (chars *CharsVocabulary) EncodeTokenChars(tokens []string,
	p Permutation) (types.CharRows, error) {
	start, end, err := chars.CharMarkers(p)
	if err != nil {
		return nil, err
	}
	rows := make(types.CharRows, 0, len(tokens)+2)
	rows = append(rows, start)
	for _, token := range tokens {
		rows = append(rows, chars.WordToCharIDs(token))
	}
	return append(rows, end), nil
}

// DecodeCharIDs returns the bytes spelled by a row. Marker and padding ids
// are dropped.
func DecodeCharIDs(row types.CharIDs) []byte {
	decoded := make([]byte, 0, len(row))
	for _, c := range row {
		switch {
		case c == BowChar || c == PadChar:
			continue
		case c == EowChar:
			return decoded
		case c >= 0 && c < 256:
			decoded = append(decoded, byte(c))
		}
	}
	return decoded
}
