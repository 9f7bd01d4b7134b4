package check

import (
	"reflect"
	"testing"

	"github.com/chaincheck/chaincheck/internal/signal"
)

func TestResolveEmptyMapping(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{})

	if a.RiskLevel != RiskUnknown {
		t.Errorf("riskLevel = %s, want UNKNOWN", a.RiskLevel)
	}
	if a.RiskScore != nil {
		t.Errorf("riskScore = %v, want nil", *a.RiskScore)
	}
	if a.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", a.Confidence)
	}
}

func TestResolveBlacklistHit(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindBlacklist: &signal.BlacklistResult{Found: true, Category: signal.CategoryPhishing, Source: "internal"},
	})

	if a.RiskLevel != RiskFraud {
		t.Errorf("riskLevel = %s, want FRAUD", a.RiskLevel)
	}
	if a.RiskScore == nil || *a.RiskScore != 100 {
		t.Errorf("riskScore = %v, want 100", a.RiskScore)
	}
	if a.ThreatCategory == nil || *a.ThreatCategory != signal.CategoryPhishing {
		t.Errorf("threatCategory = %v, want phishing", a.ThreatCategory)
	}
}

func TestResolveBlacklistOutranksWhitelist(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindBlacklist: &signal.BlacklistResult{Found: true, Category: signal.CategoryScam},
		signal.KindWhitelist: &signal.WhitelistResult{Found: true, Source: "verified"},
	})

	if a.RiskLevel != RiskFraud {
		t.Errorf("riskLevel = %s, want FRAUD (blacklist outranks whitelist)", a.RiskLevel)
	}
}

func TestResolveWhitelistOnly(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindWhitelist: &signal.WhitelistResult{Found: true, Source: "verified"},
	})

	if a.RiskLevel != RiskSafe {
		t.Errorf("riskLevel = %s, want SAFE", a.RiskLevel)
	}
	if a.RiskScore == nil || *a.RiskScore != 0 {
		t.Errorf("riskScore = %v, want 0", a.RiskScore)
	}
}

func TestResolveWhitelistOverridesSuspicion(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindWhitelist: &signal.WhitelistResult{Found: true},
		signal.KindURLScan:   &signal.URLScanResult{Verdict: signal.VerdictSuspicious, Positives: 2, Total: 20},
		signal.KindLookAlike: &signal.LookAlikeResult{Match: true, Target: "binance.com", Similarity: 0.9},
	})

	if a.RiskLevel != RiskSafe {
		t.Errorf("riskLevel = %s, want SAFE (whitelist is authoritative)", a.RiskLevel)
	}
}

func TestResolveScanMalicious(t *testing.T) {
	// 7 of 20 engines flagging puts the verdict over the malicious threshold.
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindURLScan: &signal.URLScanResult{
			Verdict:   signal.VerdictMalicious,
			Positives: 7,
			Total:     20,
		},
	})

	if a.RiskLevel != RiskFraud {
		t.Errorf("riskLevel = %s, want FRAUD", a.RiskLevel)
	}
	if a.ThreatCategory == nil || *a.ThreatCategory != signal.CategoryMalware {
		t.Errorf("threatCategory = %v, want malware", a.ThreatCategory)
	}
}

func TestResolveScanUnknownIsNoOpinion(t *testing.T) {
	// A 404 from the scanner means "never seen", not "clean".
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindURLScan: &signal.URLScanResult{Verdict: signal.VerdictUnknown},
	})

	if a.RiskLevel != RiskUnknown {
		t.Errorf("riskLevel = %s, want UNKNOWN", a.RiskLevel)
	}
	if a.RiskScore != nil {
		t.Errorf("riskScore = %v, want nil", *a.RiskScore)
	}
}

func TestResolveScanSuspicious(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindURLScan: &signal.URLScanResult{Verdict: signal.VerdictSuspicious, Positives: 2, Total: 30},
	})

	if a.RiskLevel != RiskCaution {
		t.Errorf("riskLevel = %s, want CAUTION", a.RiskLevel)
	}
}

func TestResolveLookAlikeMatch(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindLookAlike: &signal.LookAlikeResult{Match: true, Target: "coinbase.com", Similarity: 0.92},
	})

	if a.RiskLevel != RiskCaution {
		t.Errorf("riskLevel = %s, want CAUTION", a.RiskLevel)
	}
	if a.ThreatCategory == nil || *a.ThreatCategory != signal.CategoryImpersonation {
		t.Errorf("threatCategory = %v, want impersonation", a.ThreatCategory)
	}
}

func TestResolveMLRecommendations(t *testing.T) {
	cases := []struct {
		rec   signal.Recommendation
		score float64
		want  RiskLevel
	}{
		{signal.RecommendHighRisk, 0.83, RiskCaution},
		{signal.RecommendReview, 0.47, RiskLow},
		{signal.RecommendSafe, 0.08, RiskSafe},
	}

	for _, tc := range cases {
		a := Resolve(map[signal.Kind]signal.Result{
			signal.KindMLScore: &signal.MLScoreResult{Score: tc.score, Recommendation: tc.rec},
		})
		if a.RiskLevel != tc.want {
			t.Errorf("ml %s: riskLevel = %s, want %s", tc.rec, a.RiskLevel, tc.want)
		}
		want := int(tc.score*100 + 0.5)
		if a.RiskScore == nil || *a.RiskScore != want {
			t.Errorf("ml %s: riskScore = %v, want %d", tc.rec, a.RiskScore, want)
		}
	}
}

func TestResolveContextualSignalsCarryNoVerdict(t *testing.T) {
	a := Resolve(map[signal.Kind]signal.Result{
		signal.KindIdentity:  &signal.IdentityResult{Found: true, Name: "Example Corp"},
		signal.KindTxHistory: &signal.TxHistoryResult{Active: true, TxCount: 412},
	})

	if a.RiskLevel != RiskUnknown {
		t.Errorf("riskLevel = %s, want UNKNOWN for contextual-only signals", a.RiskLevel)
	}
}

func TestResolveIdempotent(t *testing.T) {
	signals := map[signal.Kind]signal.Result{
		signal.KindURLScan:   &signal.URLScanResult{Verdict: signal.VerdictSuspicious, Positives: 3, Total: 25},
		signal.KindMLScore:   &signal.MLScoreResult{Score: 0.7, Recommendation: signal.RecommendHighRisk},
		signal.KindLookAlike: &signal.LookAlikeResult{Match: false},
	}

	first := Resolve(signals)
	second := Resolve(signals)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution not idempotent: %+v vs %+v", first, second)
	}
}

func TestResolveConfidenceMonotonic(t *testing.T) {
	lone := Resolve(map[signal.Kind]signal.Result{
		signal.KindURLScan: &signal.URLScanResult{Verdict: signal.VerdictMalicious, Positives: 8, Total: 20},
	})
	corroborated := Resolve(map[signal.Kind]signal.Result{
		signal.KindURLScan: &signal.URLScanResult{Verdict: signal.VerdictMalicious, Positives: 8, Total: 20},
		signal.KindMLScore: &signal.MLScoreResult{Score: 0.9, Recommendation: signal.RecommendHighRisk},
	})

	if corroborated.Confidence < lone.Confidence {
		t.Errorf("confidence decreased with corroboration: %v < %v", corroborated.Confidence, lone.Confidence)
	}
	if corroborated.RiskLevel != lone.RiskLevel {
		t.Errorf("corroboration changed verdict: %s vs %s", corroborated.RiskLevel, lone.RiskLevel)
	}
}

func TestSeverityOrdering(t *testing.T) {
	order := []RiskLevel{RiskSafe, RiskLow, RiskUnknown, RiskCaution, RiskFraud}
	for i := 1; i < len(order); i++ {
		if !order[i].MoreSevere(order[i-1]) {
			t.Errorf("%s should be more severe than %s", order[i], order[i-1])
		}
	}
}
