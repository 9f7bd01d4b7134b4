package check

import (
	"math"

	"github.com/chaincheck/chaincheck/internal/signal"
)

// Base confidence per deciding rule. Corroborating signals add on top,
// capped at 1.0, so more agreement never lowers confidence.
const (
	confBlacklist  = 0.95
	confWhitelist  = 0.90
	confScanFraud  = 0.85
	confCaution    = 0.60
	confML         = 0.50
	confPerWitness = 0.05
	scoreFraudScan = 90
	scoreCaution   = 70
)

// Resolve merges a partial signal mapping into one RiskAssessment using a
// fixed precedence policy. Rules are evaluated top-down and the first match
// is final. The function is pure: the same mapping always yields the same
// assessment, regardless of the order providers completed in.
func Resolve(signals map[signal.Kind]signal.Result) RiskAssessment {
	var (
		blacklist *signal.BlacklistResult
		whitelist *signal.WhitelistResult
		lookalike *signal.LookAlikeResult
		mlScore   *signal.MLScoreResult
		urlScan   *signal.URLScanResult
	)

	for kind, res := range signals {
		switch r := res.(type) {
		case *signal.BlacklistResult:
			blacklist = r
		case *signal.WhitelistResult:
			whitelist = r
		case *signal.LookAlikeResult:
			lookalike = r
		case *signal.MLScoreResult:
			mlScore = r
		case *signal.URLScanResult:
			urlScan = r
		case *signal.IdentityResult, *signal.TxHistoryResult:
			// Contextual signals, no direct bearing on the verdict.
		default:
			_ = kind
		}
	}

	risky, safe := countOpinions(signals)

	// Rule 1: a blacklist hit is definitive, even against a whitelist hit.
	if blacklist != nil && blacklist.Found {
		category := blacklist.Category
		return assessment(RiskFraud, intPtr(100), &category, confidence(confBlacklist, risky))
	}

	// Rule 2: whitelist is authoritative over lower-confidence suspicion.
	if whitelist != nil && whitelist.Found {
		return assessment(RiskSafe, intPtr(0), nil, confidence(confWhitelist, safe))
	}

	// Rule 3: scanner consensus of malicious.
	if urlScan != nil && urlScan.Verdict == signal.VerdictMalicious {
		category := signal.CategoryMalware
		return assessment(RiskFraud, intPtr(scoreFraudScan), &category, confidence(confScanFraud, risky))
	}

	// Rule 4: weaker suspicion signals escalate to CAUTION.
	scanSuspicious := urlScan != nil && urlScan.Verdict == signal.VerdictSuspicious
	impersonation := lookalike != nil && lookalike.Match
	if scanSuspicious || impersonation {
		var category *signal.ThreatCategory
		if impersonation {
			c := signal.CategoryImpersonation
			category = &c
		}
		return assessment(RiskCaution, intPtr(scoreCaution), category, confidence(confCaution, risky))
	}

	// Rule 5: fall through to the model's recommendation.
	if mlScore != nil {
		score := intPtr(int(math.Round(mlScore.Score * 100)))
		switch mlScore.Recommendation {
		case signal.RecommendHighRisk:
			return assessment(RiskCaution, score, nil, confidence(confML, risky))
		case signal.RecommendReview:
			return assessment(RiskLow, score, nil, confidence(confML, risky))
		case signal.RecommendSafe:
			return assessment(RiskSafe, score, nil, confidence(confML, safe))
		}
	}

	// Rule 6: nothing expressed an opinion.
	return assessment(RiskUnknown, nil, nil, 0)
}

func assessment(level RiskLevel, score *int, category *signal.ThreatCategory, conf float64) RiskAssessment {
	return RiskAssessment{
		RiskLevel:      level,
		RiskScore:      score,
		ThreatCategory: category,
		Confidence:     conf,
	}
}

// confidence raises a rule's base confidence by the number of corroborating
// opinions beyond the deciding one. Monotonic: extra witnesses never lower it.
func confidence(base float64, agreeing int) float64 {
	extra := agreeing - 1
	if extra < 0 {
		extra = 0
	}
	conf := base + float64(extra)*confPerWitness
	if conf > 1.0 {
		conf = 1.0
	}
	return math.Round(conf*100) / 100
}

// countOpinions tallies how many signals lean risky vs safe. Identity and
// transaction history are contextual and counted for neither direction.
func countOpinions(signals map[signal.Kind]signal.Result) (risky, safe int) {
	for _, res := range signals {
		switch r := res.(type) {
		case *signal.BlacklistResult:
			if r.Found {
				risky++
			}
		case *signal.WhitelistResult:
			if r.Found {
				safe++
			}
		case *signal.LookAlikeResult:
			if r.Match {
				risky++
			}
		case *signal.MLScoreResult:
			switch r.Recommendation {
			case signal.RecommendHighRisk, signal.RecommendReview:
				risky++
			case signal.RecommendSafe:
				safe++
			}
		case *signal.URLScanResult:
			switch r.Verdict {
			case signal.VerdictMalicious, signal.VerdictSuspicious:
				risky++
			case signal.VerdictClean:
				safe++
			}
		}
	}
	return risky, safe
}

func intPtr(v int) *int { return &v }
