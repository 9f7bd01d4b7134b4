package lookalike

import (
	"context"
	"testing"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

func checkDomain(t *testing.T, d *Detector, value string) *signal.LookAlikeResult {
	t.Helper()
	res, err := d.Check(context.Background(), entity.Entity{
		Value:      value,
		Type:       entity.TypeDomain,
		Normalized: value,
	})
	if err != nil {
		t.Fatalf("Check(%q): %v", value, err)
	}
	return res.(*signal.LookAlikeResult)
}

func TestSkeletonFolding(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"c0inbase.com", "coinbase.com"},
		{"rnetamask.io", "metamask.io"},
		{"vvallet.com", "wallet.com"},
		{"bin4nce.com", "binance.com"},
		{"müller.de", "muller.de"},
		{"coinbase.com", "coinbase.com"},
	}
	for _, tc := range cases {
		if got := Skeleton(tc.in); got != tc.want {
			t.Errorf("Skeleton(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSkeletonCyrillic(t *testing.T) {
	// "соinbase" with Cyrillic es and o.
	if got := Skeleton("соinbase.com"); got != "coinbase.com" {
		t.Errorf("cyrillic skeleton = %q, want coinbase.com", got)
	}
}

func TestHomoglyphDomainsMatch(t *testing.T) {
	d := NewDetector()

	for _, domain := range []string{"c0inbase.com", "rnetamask.io", "bin4nce.com"} {
		res := checkDomain(t, d, domain)
		if !res.Match {
			t.Errorf("%q should match a protected target", domain)
			continue
		}
		if res.Similarity != 1.0 {
			t.Errorf("%q similarity = %v, want 1.0 for skeleton-identical", domain, res.Similarity)
		}
	}
}

func TestGenuineTargetDoesNotMatchItself(t *testing.T) {
	d := NewDetector()

	res := checkDomain(t, d, "coinbase.com")
	if res.Match {
		t.Errorf("the genuine domain matched as look-alike of %q", res.Target)
	}
}

func TestTyposquatWithinEditDistance(t *testing.T) {
	d := NewDetector()

	res := checkDomain(t, d, "krakken.com")
	if !res.Match || res.Target != "kraken.com" {
		t.Errorf("krakken.com = %+v, want match against kraken.com", res)
	}
	if res.Similarity >= 1.0 || res.Similarity < matchThreshold {
		t.Errorf("similarity = %v, want in [%v, 1.0)", res.Similarity, matchThreshold)
	}
}

func TestUnrelatedDomainNoMatch(t *testing.T) {
	d := NewDetector()

	res := checkDomain(t, d, "example.com")
	if res.Match {
		t.Errorf("example.com matched %q", res.Target)
	}
}

func TestTwitterHandleHomoglyph(t *testing.T) {
	d := NewDetector()

	res, err := d.Check(context.Background(), entity.Entity{
		Type:       entity.TypeTwitter,
		Normalized: "c0inbase",
	})
	if err != nil {
		t.Fatal(err)
	}
	la := res.(*signal.LookAlikeResult)
	if !la.Match || la.Target != "coinbase" {
		t.Errorf("result = %+v", la)
	}
}

func TestAddTargetAtRuntime(t *testing.T) {
	d := NewDetector()
	d.AddTarget(entity.TypeDomain, "chaincheck.io")

	res := checkDomain(t, d, "chainchek.io")
	if !res.Match || res.Target != "chaincheck.io" {
		t.Errorf("result = %+v", res)
	}
}

func TestAppliesTo(t *testing.T) {
	d := NewDetector()

	if !d.AppliesTo(entity.TypeDomain) || !d.AppliesTo(entity.TypeTwitter) {
		t.Error("should apply to domains and handles")
	}
	if d.AppliesTo(entity.TypeAddress) || d.AppliesTo(entity.TypeEmail) {
		t.Error("should not apply to addresses or emails")
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"coinbase", "coinbase", 0},
		{"kraken", "krakken", 1},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
