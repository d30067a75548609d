package types

// Token is a vocabulary id. NoToken marks a special token that the
// vocabulary file did not define.
type Token int32
type Tokens []Token
type TokenMap map[string]Token

const NoToken Token = -1

// CharIDs is one fixed-width row of character ids for a single token.
type CharIDs []int32
type CharRows []CharIDs

// Batch keys produced by the assembler.
const (
	KeyTokenIDs         = "token_ids"
	KeyTokensCharacters = "tokens_characters"
	KeyNextTokenID      = "next_token_id"
)

// Batch maps a key (optionally suffixed by direction) to a tensor.
type Batch map[string]*Tensor

// Merge copies every entry of other into b under key+suffix.
func (b Batch) Merge(other Batch, suffix string) {
	for k, v := range other {
		b[k+suffix] = v
	}
}
