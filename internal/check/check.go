// Package check implements the risk aggregation pipeline.
//
// A raw entity string is classified, fanned out to every applicable signal
// provider concurrently, and the collected signals are merged into a single
// RiskAssessment by a fixed precedence policy. The assembled response carries
// the verdict, every raw signal that arrived, and per-entity bookkeeping
// stats. Signals that failed or timed out appear as absent fields, never as
// fabricated "not found" values.
package check

import (
	"context"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// RiskLevel is the resolved verdict for a checked entity.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "SAFE"
	RiskLow     RiskLevel = "LOW_RISK"
	RiskUnknown RiskLevel = "UNKNOWN"
	RiskCaution RiskLevel = "CAUTION"
	RiskFraud   RiskLevel = "FRAUD"
)

// severityRank orders levels for display and comparison. UNKNOWN sits between
// LOW_RISK and CAUTION: an entity nobody has an opinion on warrants more
// wariness than one explicitly assessed as low risk.
var severityRank = map[RiskLevel]int{
	RiskSafe:    0,
	RiskLow:     1,
	RiskUnknown: 2,
	RiskCaution: 3,
	RiskFraud:   4,
}

// Severity returns the display-ordering rank of a risk level.
func (l RiskLevel) Severity() int {
	return severityRank[l]
}

// MoreSevere reports whether l outranks other.
func (l RiskLevel) MoreSevere(other RiskLevel) bool {
	return severityRank[l] > severityRank[other]
}

// RiskAssessment is the resolved verdict for one check. It is constructed
// once by the resolver and never mutated afterwards.
type RiskAssessment struct {
	RiskLevel      RiskLevel              `json:"riskLevel"`
	RiskScore      *int                   `json:"riskScore"` // 0-100, null when no signal expressed an opinion
	ThreatCategory *signal.ThreatCategory `json:"threatCategory,omitempty"`
	Confidence     float64                `json:"confidence"`
}

// EntityStats carries per-entity bookkeeping merged into the response.
type EntityStats struct {
	TimesSearched   int64 `json:"timesSearched"`
	UserReportCount int64 `json:"userReportCount"`
}

// Signals re-exposes each present signal under its typed field. Absent
// signals marshal as absent, so consumers can tell "checked and clean"
// apart from "could not check".
type Signals struct {
	Blacklist *signal.BlacklistResult `json:"blacklist,omitempty"`
	Whitelist *signal.WhitelistResult `json:"whitelist,omitempty"`
	Identity  *signal.IdentityResult  `json:"identity,omitempty"`
	LookAlike *signal.LookAlikeResult `json:"lookAlike,omitempty"`
	MLScore   *signal.MLScoreResult   `json:"mlScore,omitempty"`
	URLScan   *signal.URLScanResult   `json:"virusTotal,omitempty"`
	TxHistory *signal.TxHistoryResult `json:"transactions,omitempty"`
}

// EntityInfo describes the classified entity in the response.
type EntityInfo struct {
	Value      string       `json:"value"`
	Type       entity.Type  `json:"entityType"`
	Normalized string       `json:"normalizedValue"`
	Chain      entity.Chain `json:"chain,omitempty"`
}

// CheckResponse is the full external contract for one check.
type CheckResponse struct {
	CheckID    string            `json:"checkId"`
	Entity     EntityInfo        `json:"entity"`
	Assessment RiskAssessment    `json:"assessment"`
	Signals    Signals           `json:"signals"`
	Stats      EntityStats       `json:"stats"`
	Links      map[string]string `json:"links,omitempty"`
	CheckedAt  time.Time         `json:"checkedAt"`
}

// Store persists per-entity search counters.
type Store interface {
	// RecordSearch increments the search counter for an entity and returns
	// the updated count.
	RecordSearch(ctx context.Context, normalized string, entityType entity.Type) (int64, error)

	// TimesSearched returns the current search counter without incrementing.
	TimesSearched(ctx context.Context, normalized string, entityType entity.Type) (int64, error)
}

// ReportCounter supplies the user report count for an entity. Implemented by
// the reports store.
type ReportCounter interface {
	CountForEntity(ctx context.Context, normalized string, entityType entity.Type) (int64, error)
}
