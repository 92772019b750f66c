// Package tokenizer estimates token counts for text buffers and decides
// when a growing buffer no longer fits a model's context budget.
//
// Counting is advisory: the budget comparison only needs a consistent
// ordering, so any estimator that is monotonic in text length will do.
// BPE uses the tiktoken ranks of the selected model family; CharEstimator
// is a dependency-free approximation for runners without network access
// to fetch the BPE ranks.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Estimator returns an approximate token count for text.
type Estimator interface {
	EstimateTokens(text string) int
}

// ---------------------------------------------------------------------------
// Context sizes
// ---------------------------------------------------------------------------

const (
	// DefaultContextSize is the context window assumed for unrecognized models.
	DefaultContextSize = 4096
	// ContextSize16K is used for model names containing "16k".
	ContextSize16K = 16384
	// ContextSize32K is used for model names containing "32k".
	ContextSize32K = 32768
)

// ContextSize returns the nominal context window for a model name.
func ContextSize(model string) int {
	switch {
	case strings.Contains(model, "32k"):
		return ContextSize32K
	case strings.Contains(model, "16k"):
		return ContextSize16K
	default:
		return DefaultContextSize
	}
}

// Budget returns the per-chunk token budget for a model: half of its
// context window, leaving the other half for the translated answer.
func Budget(model string) int {
	return ContextSize(model) / 2
}

// ---------------------------------------------------------------------------
// BPE estimator (tiktoken)
// ---------------------------------------------------------------------------

// fallbackEncoding is used when tiktoken has no mapping for the model name.
const fallbackEncoding = "cl100k_base"

// BPE counts tokens with the byte-pair encoding of a model family.
type BPE struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewBPE loads the encoding used by model. Unknown models fall back to
// cl100k_base. Loading may need network access on first use to fetch the
// rank file; callers should fall back to CharEstimator on error.
func NewBPE(model string) (*BPE, error) {
	enc, err := tiktoken.EncodingForModel(model)
	name := model
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		name = fallbackEncoding
		if err != nil {
			return nil, fmt.Errorf("tokenizer: loading %s encoding: %w", fallbackEncoding, err)
		}
	}
	return &BPE{enc: enc, encoding: name}, nil
}

// EstimateTokens returns the number of BPE tokens in text. Special-token
// markers such as <|endoftext|> are allowed and count as one token each.
func (b *BPE) EstimateTokens(text string) int {
	return len(b.enc.Encode(text, []string{"all"}, nil))
}

// Encoding returns the model or encoding name the estimator was loaded for.
func (b *BPE) Encoding() string {
	return b.encoding
}

// ---------------------------------------------------------------------------
// Character estimator
// ---------------------------------------------------------------------------

// CharsPerToken is the rough ratio of characters to tokens for English text.
const CharsPerToken = 4

// CharEstimator approximates tokens as ceil(runes / CharsPerToken).
type CharEstimator struct{}

// EstimateTokens implements Estimator.
func (CharEstimator) EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// loadBPE is swapped in tests to simulate an unavailable rank file.
var loadBPE = NewBPE

// ForModel returns a BPE estimator for model, or CharEstimator when the
// BPE ranks cannot be loaded. The returned error is informational.
func ForModel(model string) (Estimator, error) {
	bpe, err := loadBPE(model)
	if err != nil {
		return CharEstimator{}, err
	}
	return bpe, nil
}

// ---------------------------------------------------------------------------
// Planner
// ---------------------------------------------------------------------------

// Planner decides whether a candidate buffer exceeds the token budget.
type Planner struct {
	Estimator Estimator
	Budget    int
}

// NewPlanner builds a planner for model using est.
func NewPlanner(est Estimator, model string) Planner {
	return Planner{Estimator: est, Budget: Budget(model)}
}

// Overflows reports whether candidate's estimate is strictly above the budget.
func (p Planner) Overflows(candidate string) bool {
	return p.Estimator.EstimateTokens(candidate) > p.Budget
}
