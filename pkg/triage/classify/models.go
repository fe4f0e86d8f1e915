package classify

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

// EmbeddingDim is the dimensionality of the feature-hashed embeddings.
const EmbeddingDim = 384

// categoryKeywords routes ticket text to a category on keyword hits.
// Map iteration order does not matter here because the sets are disjoint.
var categoryKeywords = map[triage.Category][]string{
	triage.CategoryBilling:   {"refund", "invoice", "payment", "subscription", "billing", "charge"},
	triage.CategoryTechnical: {"error", "crash", "server", "bug", "down", "not working", "login"},
	triage.CategoryLegal:     {"policy", "gdpr", "contract", "legal", "compliance"},
}

// urgencyPatterns each contribute 1/5 to the urgency score, capped at 1.
var urgencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\burgent\b`),
	regexp.MustCompile(`\basap\b`),
	regexp.MustCompile(`\bimmediately\b`),
	regexp.MustCompile(`\bcritical\b`),
	regexp.MustCompile(`\bbroken\b`),
	regexp.MustCompile(`\bnot working\b`),
	regexp.MustCompile(`\boutage\b`),
	regexp.MustCompile(`\bdown\b`),
}

// KeywordModel is the primary model: keyword category routing, regex-based
// urgency scoring, and feature-hashed bag-of-words embeddings.
type KeywordModel struct{}

// NewKeywordModel creates the primary keyword model.
func NewKeywordModel() *KeywordModel {
	return &KeywordModel{}
}

// Name returns the model name.
func (m *KeywordModel) Name() string { return "keyword" }

// Classify routes on category keyword hits; text that matches nothing falls
// back to the default category.
func (m *KeywordModel) Classify(ctx context.Context, text string) (triage.Category, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return triage.DefaultCategory, nil
	}
	for _, category := range triage.Categories() {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(lower, kw) {
				return category, nil
			}
		}
	}
	return triage.DefaultCategory, nil
}

// Urgency counts urgency keyword patterns; each hit is worth 0.2, capped at 1.
func (m *KeywordModel) Urgency(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return 0, nil
	}
	matches := 0
	for _, p := range urgencyPatterns {
		if p.MatchString(lower) {
			matches++
		}
	}
	return math.Min(float64(matches)/5, 1), nil
}

// Embed hashes lowercased tokens into a fixed-dimension bag-of-words vector,
// L2-normalized. Near-identical texts share most tokens and score well above
// the storm similarity threshold.
func (m *KeywordModel) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hashEmbed(text), nil
}

// BaselineModel is the lower-latency fallback: same keyword routing but a
// cruder urgency heuristic and no per-token normalization work beyond the
// shared hashing pass. It exists so the breaker has a cheaper path to fall
// back to when the primary degrades.
type BaselineModel struct{}

// NewBaselineModel creates the fallback model.
func NewBaselineModel() *BaselineModel {
	return &BaselineModel{}
}

// Name returns the model name.
func (m *BaselineModel) Name() string { return "baseline" }

// Classify routes on a reduced keyword set, one hit per category.
func (m *BaselineModel) Classify(ctx context.Context, text string) (triage.Category, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "billing"), strings.Contains(lower, "invoice"), strings.Contains(lower, "payment"):
		return triage.CategoryBilling, nil
	case strings.Contains(lower, "legal"), strings.Contains(lower, "contract"):
		return triage.CategoryLegal, nil
	default:
		return triage.CategoryTechnical, nil
	}
}

// Urgency scores 0.8 when an urgency keyword appears at all, else 0.2.
func (m *BaselineModel) Urgency(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	lower := strings.ToLower(text)
	for _, p := range urgencyPatterns {
		if p.MatchString(lower) {
			return 0.8, nil
		}
	}
	return 0.2, nil
}

// Embed uses the same feature hashing as the primary model so storm
// similarity remains comparable across breaker transitions.
func (m *BaselineModel) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hashEmbed(text), nil
}

// hashEmbed produces an L2-normalized feature-hashed token count vector.
func hashEmbed(text string) []float64 {
	vec := make([]float64, EmbeddingDim)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return vec
	}
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,!?:;\"'()")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%EmbeddingDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

var (
	_ Model = (*KeywordModel)(nil)
	_ Model = (*BaselineModel)(nil)
)
