// Package mlscore implements a heuristic risk scorer for names and handles.
//
// The score is a weighted blend of 5 lexical features: suspicious keywords,
// character entropy, digit ratio, TLD risk, and length. Scores range from
// 0.0 (benign) to 1.0 (high risk) and map to a qualitative recommendation.
// Fully deterministic: the same input always produces the same score.
package mlscore

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

const (
	weightKeywords = 0.30
	weightEntropy  = 0.20
	weightTLD      = 0.20
	weightDigits   = 0.15
	weightLength   = 0.15

	// Recommendation thresholds.
	highRiskThreshold = 0.70
	reviewThreshold   = 0.40
)

// suspiciousKeywords are tokens common in phishing and giveaway-scam names.
var suspiciousKeywords = []string{
	"airdrop",
	"giveaway",
	"free",
	"bonus",
	"claim",
	"verify",
	"support",
	"login",
	"secure",
	"wallet",
	"prize",
	"reward",
	"official",
	"urgent",
}

// riskyTLDs see disproportionate abuse in phishing campaigns.
var riskyTLDs = map[string]bool{
	"xyz":   true,
	"top":   true,
	"icu":   true,
	"click": true,
	"buzz":  true,
	"work":  true,
	"loan":  true,
	"gq":    true,
	"tk":    true,
	"ml":    true,
	"cf":    true,
	"zip":   true,
}

// Scorer evaluates entities with the weighted feature blend.
type Scorer struct{}

// NewScorer creates the heuristic scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Kind() signal.Kind { return signal.KindMLScore }

// AppliesTo covers lexical entity types; raw chain addresses are excluded
// because their uniform randomness defeats every feature here.
func (s *Scorer) AppliesTo(t entity.Type) bool {
	return t == entity.TypeDomain || t == entity.TypeTwitter || t == entity.TypeEmail
}

func (s *Scorer) Timeout() time.Duration { return time.Second }

// Check scores the entity and maps the score to a recommendation.
func (s *Scorer) Check(ctx context.Context, e entity.Entity) (signal.Result, error) {
	features := map[string]float64{
		"keywords": keywordFactor(e.Normalized),
		"entropy":  entropyFactor(e.Normalized),
		"tld":      tldFactor(e),
		"digits":   digitFactor(e.Normalized),
		"length":   lengthFactor(e.Normalized),
	}

	score := features["keywords"]*weightKeywords +
		features["entropy"]*weightEntropy +
		features["tld"]*weightTLD +
		features["digits"]*weightDigits +
		features["length"]*weightLength

	// Clamp to [0, 1]
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	score = math.Round(score*1000) / 1000

	rec := signal.RecommendSafe
	switch {
	case score >= highRiskThreshold:
		rec = signal.RecommendHighRisk
	case score >= reviewThreshold:
		rec = signal.RecommendReview
	}

	return &signal.MLScoreResult{
		Score:          score,
		Recommendation: rec,
		Features:       features,
	}, nil
}

// keywordFactor: 0.5 per suspicious token, capped at 1.0.
func keywordFactor(value string) float64 {
	hits := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(value, kw) {
			hits++
		}
	}
	factor := float64(hits) * 0.5
	if factor > 1.0 {
		factor = 1.0
	}
	return factor
}

// entropyFactor: Shannon entropy of the name part, normalized so that
// near-random strings approach 1.0. English-like names sit around 0.6.
func entropyFactor(value string) float64 {
	name := namePart(value)
	if len(name) < 4 {
		return 0.0
	}

	freq := make(map[rune]float64)
	var total float64
	for _, r := range name {
		freq[r]++
		total++
	}

	var entropy float64
	for _, count := range freq {
		p := count / total
		entropy -= p * math.Log2(p)
	}

	// 4.7 bits/char is close to the maximum for lowercase alphanumerics.
	factor := entropy / 4.7
	if factor > 1.0 {
		factor = 1.0
	}
	return math.Round(factor*1000) / 1000
}

// tldFactor: 1.0 for TLDs with disproportionate abuse rates.
func tldFactor(e entity.Entity) float64 {
	if e.Type != entity.TypeDomain {
		return 0.0
	}
	idx := strings.LastIndex(e.Normalized, ".")
	if idx < 0 {
		return 0.0
	}
	if riskyTLDs[e.Normalized[idx+1:]] {
		return 1.0
	}
	return 0.0
}

// digitFactor: proportion of digits in the name part.
func digitFactor(value string) float64 {
	name := namePart(value)
	if name == "" {
		return 0.0
	}
	digits := 0
	for _, r := range name {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return math.Round(float64(digits)/float64(len(name))*1000) / 1000
}

// lengthFactor: names over 25 chars scale towards 1.0 at 50.
func lengthFactor(value string) float64 {
	n := len(namePart(value))
	if n <= 25 {
		return 0.0
	}
	factor := float64(n-25) / 25.0
	if factor > 1.0 {
		factor = 1.0
	}
	return math.Round(factor*1000) / 1000
}

// namePart strips the TLD from domains and the domain from emails so the
// character features look at the chosen name, not the suffix.
func namePart(value string) string {
	if at := strings.Index(value, "@"); at > 0 {
		return value[:at]
	}
	if dot := strings.Index(value, "."); dot > 0 {
		return value[:dot]
	}
	return value
}
