// Package signal defines the provider contract for risk signals and the
// invoker that fans out to all applicable providers concurrently.
//
// Each provider contributes one opinion (a Result) about an entity. The
// set of signal kinds is closed: adding a kind means adding a Result
// variant here and handling it in the verdict resolver and assembler.
package signal

import (
	"context"
	"errors"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// Kind identifies a signal provider.
type Kind string

const (
	KindBlacklist Kind = "blacklist"
	KindWhitelist Kind = "whitelist"
	KindIdentity  Kind = "identity"
	KindLookAlike Kind = "lookalike"
	KindMLScore   Kind = "ml_score"
	KindURLScan   Kind = "url_scan"
	KindTxHistory Kind = "tx_history"
)

// Kinds returns every known signal kind.
func Kinds() []Kind {
	return []Kind{
		KindBlacklist,
		KindWhitelist,
		KindIdentity,
		KindLookAlike,
		KindMLScore,
		KindURLScan,
		KindTxHistory,
	}
}

// ThreatCategory classifies why an entity is considered malicious.
type ThreatCategory string

const (
	CategoryPhishing      ThreatCategory = "phishing"
	CategoryScam          ThreatCategory = "scam"
	CategoryMalware       ThreatCategory = "malware"
	CategoryImpersonation ThreatCategory = "impersonation"
	CategoryTheft         ThreatCategory = "theft"
	CategoryOther         ThreatCategory = "other"
)

// Recommendation is the ML scorer's qualitative output.
type Recommendation string

const (
	RecommendSafe     Recommendation = "safe"
	RecommendReview   Recommendation = "review"
	RecommendHighRisk Recommendation = "high_risk"
)

// ScanVerdict is the URL/malware scanner's qualitative output.
type ScanVerdict string

const (
	VerdictClean      ScanVerdict = "clean"
	VerdictSuspicious ScanVerdict = "suspicious"
	VerdictMalicious  ScanVerdict = "malicious"
	VerdictUnknown    ScanVerdict = "unknown"
)

// Result is the typed output of one provider. The interface is sealed:
// only the variants in this package implement it.
type Result interface {
	Kind() Kind
	sealedResult()
}

// BlacklistResult is a blacklist lookup outcome.
type BlacklistResult struct {
	Found    bool           `json:"found"`
	Category ThreatCategory `json:"category,omitempty"`
	Source   string         `json:"source,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// WhitelistResult is a whitelist lookup outcome.
type WhitelistResult struct {
	Found      bool      `json:"found"`
	Source     string    `json:"source,omitempty"`
	VerifiedAt time.Time `json:"verifiedAt,omitzero"`
}

// IdentityResult is an identity-registry lookup outcome.
type IdentityResult struct {
	Found   bool   `json:"found"`
	Name    string `json:"name,omitempty"`
	Website string `json:"website,omitempty"`
	Twitter string `json:"twitter,omitempty"`
}

// LookAlikeResult flags homoglyph/typosquat impersonation of a protected target.
type LookAlikeResult struct {
	Match      bool    `json:"match"`
	Target     string  `json:"target,omitempty"`
	Similarity float64 `json:"similarity,omitempty"` // 0..1, 1 = homoglyph-identical
}

// MLScoreResult is the heuristic risk scorer's output.
type MLScoreResult struct {
	Score          float64            `json:"score"` // 0..1
	Recommendation Recommendation     `json:"recommendation"`
	Features       map[string]float64 `json:"features,omitempty"`
}

// URLScanResult is the external URL-reputation scanner's output.
type URLScanResult struct {
	Verdict        ScanVerdict `json:"verdict"`
	Positives      int         `json:"positives"`
	Total          int         `json:"total"`
	MaliciousCount int         `json:"maliciousCount"`
	Engines        []string    `json:"engines,omitempty"` // top detecting engines, capped
	Permalink      string      `json:"permalink,omitempty"`
}

// TxHistoryResult summarizes on-chain activity for an address.
type TxHistoryResult struct {
	Active     bool   `json:"active"`
	TxCount    uint64 `json:"txCount"`
	Balance    string `json:"balance,omitempty"` // native units, decimal string
	IsContract bool   `json:"isContract"`
}

func (BlacklistResult) Kind() Kind { return KindBlacklist }
func (WhitelistResult) Kind() Kind { return KindWhitelist }
func (IdentityResult) Kind() Kind  { return KindIdentity }
func (LookAlikeResult) Kind() Kind { return KindLookAlike }
func (MLScoreResult) Kind() Kind   { return KindMLScore }
func (URLScanResult) Kind() Kind   { return KindURLScan }
func (TxHistoryResult) Kind() Kind { return KindTxHistory }

func (BlacklistResult) sealedResult() {}
func (WhitelistResult) sealedResult() {}
func (IdentityResult) sealedResult()  {}
func (LookAlikeResult) sealedResult() {}
func (MLScoreResult) sealedResult()   {}
func (URLScanResult) sealedResult()   {}
func (TxHistoryResult) sealedResult() {}

// ErrUnconfigured is returned by providers that cannot run because no
// credential or endpoint is configured. It is not a failure: the invoker
// excludes the provider from the result mapping without logging an error,
// and the verdict is unaffected.
var ErrUnconfigured = errors.New("signal: provider not configured")

// Provider is implemented by each risk signal source.
//
// Check returns the provider's opinion about an entity, or an error.
// A failed or timed-out provider contributes no entry to the check's
// result mapping — absence is the degraded state, never a sentinel value.
type Provider interface {
	// Kind identifies the provider.
	Kind() Kind

	// AppliesTo reports whether this provider can evaluate the entity type.
	// The invoker skips inapplicable providers before invocation.
	AppliesTo(t entity.Type) bool

	// Timeout is the per-invocation bound for this provider.
	// Zero means the invoker's default applies.
	Timeout() time.Duration

	// Check evaluates the entity. Implementations must honor ctx cancellation.
	Check(ctx context.Context, e entity.Entity) (Result, error)
}
