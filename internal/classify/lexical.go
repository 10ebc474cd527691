package classify

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Lexical is the default backend: a deterministic scorer that ranks
// categories by token overlap with the item text. It stands in for a real
// model so the service runs self-contained; production deployments inject
// their own Backend.
type Lexical struct{}

// NewLexical creates the default lexical backend.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Classify scores every category against the item and returns the best one.
// Scores are softmax-normalized so they sum to 1. The result depends only on
// the inputs, so repeated calls agree.
func (l *Lexical) Classify(ctx context.Context, item string, categories []string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if len(categories) == 0 {
		return Prediction{}, errors.New("no categories to score")
	}

	itemTokens := tokenize(item)
	raw := make(map[string]float64, len(categories))
	for _, cat := range categories {
		raw[cat] = overlap(itemTokens, tokenize(cat)) + affinity(item, cat)
	}

	scores := softmax(categories, raw)

	best := categories[0]
	for _, cat := range categories[1:] {
		if scores[cat] > scores[best] {
			best = cat
		}
	}

	return Prediction{Label: best, Scores: scores}, nil
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// overlap counts tokens the item shares with the category name.
func overlap(item, category map[string]struct{}) float64 {
	var n float64
	for tok := range category {
		if _, ok := item[tok]; ok {
			n++
		}
	}
	return n
}

// affinity produces a stable tie-breaking score in [0, 0.5) from the
// item/category pair. Kept below 1 so a single real token overlap always
// outranks it.
func affinity(item, category string) float64 {
	h := fnv.New64a()
	h.Write([]byte(item))
	h.Write([]byte{0})
	h.Write([]byte(category))
	return float64(h.Sum64()%1000) / 2000
}

// softmax normalizes raw scores over the category list.
func softmax(categories []string, raw map[string]float64) map[string]float64 {
	var sum float64
	exps := make(map[string]float64, len(categories))
	for _, cat := range categories {
		e := math.Exp(raw[cat])
		exps[cat] = e
		sum += e
	}
	scores := make(map[string]float64, len(categories))
	for _, cat := range categories {
		scores[cat] = exps[cat] / sum
	}
	return scores
}

// Verify Lexical implements Backend
var _ Backend = (*Lexical)(nil)
