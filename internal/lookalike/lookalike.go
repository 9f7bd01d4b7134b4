// Package lookalike detects homoglyph and typosquat impersonation of
// protected domains and handles.
//
// Candidate values are folded to a visual "skeleton" (Unicode NFKD plus a
// confusable-character table), then compared against the protected-target
// list by skeleton equality and bounded edit distance. A skeleton-identical
// string that differs from the target in raw form is a near-certain
// impersonation.
package lookalike

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// matchThreshold is the minimum similarity to flag an impersonation.
const matchThreshold = 0.85

// defaultTargets seeds the protected list with high-value crypto brands.
var defaultTargets = map[entity.Type][]string{
	entity.TypeDomain: {
		"coinbase.com",
		"binance.com",
		"kraken.com",
		"metamask.io",
		"opensea.io",
		"uniswap.org",
		"etherscan.io",
		"ledger.com",
	},
	entity.TypeTwitter: {
		"coinbase",
		"binance",
		"metamask",
		"opensea",
		"uniswap",
	},
}

// confusables maps visually deceptive characters to their plain-ASCII
// equivalents. Applied after NFKD decomposition strips accents.
var confusables = map[rune]rune{
	'0': 'o',
	'1': 'l',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
	'@': 'a',
	'$': 's',
	'!': 'i',
	'|': 'l',
	// Cyrillic lookalikes survive NFKD untouched.
	'а': 'a',
	'е': 'e',
	'о': 'o',
	'р': 'p',
	'с': 'c',
	'х': 'x',
	'у': 'y',
	'і': 'i',
	'ѕ': 's',
	// Greek.
	'ο': 'o',
	'α': 'a',
	'ν': 'v',
}

// multiConfusables maps deceptive character pairs folded before the
// per-rune pass.
var multiConfusables = [...][2]string{
	{"rn", "m"},
	{"vv", "w"},
	{"cl", "d"},
}

// Detector flags look-alikes of protected targets. Safe for concurrent use.
type Detector struct {
	mu      sync.RWMutex
	targets map[entity.Type][]protectedTarget
}

type protectedTarget struct {
	value    string
	skeleton string
}

// NewDetector creates a detector seeded with the default protected targets.
func NewDetector() *Detector {
	d := &Detector{targets: make(map[entity.Type][]protectedTarget)}
	for typ, values := range defaultTargets {
		for _, v := range values {
			d.addTarget(typ, v)
		}
	}
	return d
}

// AddTarget registers an additional protected value at runtime.
func (d *Detector) AddTarget(typ entity.Type, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addTarget(typ, value)
}

func (d *Detector) addTarget(typ entity.Type, value string) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return
	}
	d.targets[typ] = append(d.targets[typ], protectedTarget{
		value:    value,
		skeleton: Skeleton(value),
	})
}

func (d *Detector) Kind() signal.Kind { return signal.KindLookAlike }

func (d *Detector) AppliesTo(t entity.Type) bool {
	return t == entity.TypeDomain || t == entity.TypeTwitter
}

func (d *Detector) Timeout() time.Duration { return time.Second }

// Check compares the entity against every protected target of its type and
// reports the closest match above the threshold.
func (d *Detector) Check(ctx context.Context, e entity.Entity) (signal.Result, error) {
	d.mu.RLock()
	targets := d.targets[e.Type]
	d.mu.RUnlock()

	candidate := e.Normalized
	candSkeleton := Skeleton(candidate)

	best := signal.LookAlikeResult{}
	for _, target := range targets {
		// The genuine article is not an impersonation of itself.
		if candidate == target.value {
			return &signal.LookAlikeResult{Match: false}, nil
		}

		sim := similarity(candSkeleton, target.skeleton)
		if sim >= matchThreshold && sim > best.Similarity {
			best = signal.LookAlikeResult{
				Match:      true,
				Target:     target.value,
				Similarity: sim,
			}
		}
	}

	return &best, nil
}

// Skeleton folds a string to its visual skeleton: NFKD decomposition,
// combining marks stripped, confusable characters mapped to ASCII.
func Skeleton(s string) string {
	s = strings.ToLower(s)

	// Decompose so accented letters split into base + combining mark.
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if folded, ok := confusables[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}
	out := b.String()

	for _, pair := range multiConfusables {
		out = strings.ReplaceAll(out, pair[0], pair[1])
	}
	return out
}

// similarity is 1 - normalized Levenshtein distance between skeletons.
// Skeleton-identical strings score 1.0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// levenshtein computes edit distance with a two-row DP table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
