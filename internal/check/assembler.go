package check

import (
	"fmt"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// Assemble shapes the resolved verdict plus the raw signal mapping into the
// external response. Pure transformation: absent signals stay absent, stats
// are merged as given, nothing is computed here.
func Assemble(e entity.Entity, checkID string, assessment RiskAssessment, signals map[signal.Kind]signal.Result, stats EntityStats, checkedAt time.Time) *CheckResponse {
	resp := &CheckResponse{
		CheckID: checkID,
		Entity: EntityInfo{
			Value:      e.Value,
			Type:       e.Type,
			Normalized: e.Normalized,
			Chain:      e.Chain,
		},
		Assessment: assessment,
		Stats:      stats,
		Links:      externalLinks(e),
		CheckedAt:  checkedAt,
	}

	for _, res := range signals {
		switch r := res.(type) {
		case *signal.BlacklistResult:
			resp.Signals.Blacklist = r
		case *signal.WhitelistResult:
			resp.Signals.Whitelist = r
		case *signal.IdentityResult:
			resp.Signals.Identity = r
		case *signal.LookAlikeResult:
			resp.Signals.LookAlike = r
		case *signal.MLScoreResult:
			resp.Signals.MLScore = r
		case *signal.URLScanResult:
			resp.Signals.URLScan = r
		case *signal.TxHistoryResult:
			resp.Signals.TxHistory = r
		}
	}

	return resp
}

// externalLinks builds type-appropriate lookup URLs for the entity.
func externalLinks(e entity.Entity) map[string]string {
	switch e.Type {
	case entity.TypeAddress:
		switch e.Chain {
		case entity.ChainEthereum:
			return map[string]string{
				"etherscan": fmt.Sprintf("https://etherscan.io/address/%s", e.Normalized),
			}
		case entity.ChainBitcoin:
			return map[string]string{
				"blockchain": fmt.Sprintf("https://www.blockchain.com/btc/address/%s", e.Normalized),
			}
		case entity.ChainSolana:
			return map[string]string{
				"solscan": fmt.Sprintf("https://solscan.io/account/%s", e.Normalized),
			}
		}
	case entity.TypeDomain:
		return map[string]string{
			"virustotal": fmt.Sprintf("https://www.virustotal.com/gui/domain/%s", e.Normalized),
			"site":       fmt.Sprintf("https://%s", e.Normalized),
		}
	case entity.TypeTwitter:
		return map[string]string{
			"twitter": fmt.Sprintf("https://twitter.com/%s", e.Normalized),
		}
	}
	return nil
}
