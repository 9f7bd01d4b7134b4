// Package entity classifies raw user input into a typed, normalized entity.
//
// A raw string ("HTTPS://WWW.Example.COM/path", "@SomeHandle", "0xAbC...")
// is mapped to one of four entity types and canonicalized so that
// blacklist/whitelist lookups hit exact normalized values. Classification
// is a pure function: same input, same output, no I/O.
package entity

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/net/idna"
)

// Type identifies what kind of thing is being checked.
type Type string

const (
	TypeAddress Type = "ADDRESS"
	TypeDomain  Type = "DOMAIN"
	TypeTwitter Type = "TWITTER"
	TypeEmail   Type = "EMAIL"
)

// Chain identifies the blockchain an address belongs to.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBitcoin  Chain = "bitcoin"
	ChainSolana   Chain = "solana"
)

// Entity is the request-scoped value being checked. It never outlives a
// single check invocation.
type Entity struct {
	Value      string `json:"value"`
	Type       Type   `json:"entityType"`
	Normalized string `json:"normalizedValue"`
	Chain      Chain  `json:"chain,omitempty"` // set only for Type == TypeAddress
}

var (
	// ErrEmptyInput is returned for empty or whitespace-only input.
	ErrEmptyInput = errors.New("entity: empty input")

	// ErrUnclassifiable is returned when input matches no known entity shape.
	ErrUnclassifiable = errors.New("entity: input does not match any known entity shape")
)

var (
	ethAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	btcAddressRe = regexp.MustCompile(`^(bc1[a-z0-9]{25,59}|[13][a-km-zA-HJ-NP-Z1-9]{25,34})$`)
	solAddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

	emailRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	handleRe = regexp.MustCompile(`^@?[A-Za-z0-9_]{1,15}$`)

	domainLabelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?$`)
)

// Classify determines the entity type of raw input and normalizes it.
// Detection order is fixed: address, email, twitter handle, domain.
// First match wins; there is no backtracking.
func Classify(raw string) (Entity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Entity{}, ErrEmptyInput
	}

	if chain, ok := matchAddress(trimmed); ok {
		return Entity{
			Value:      trimmed,
			Type:       TypeAddress,
			Normalized: canonicalAddress(trimmed, chain),
			Chain:      chain,
		}, nil
	}

	if emailRe.MatchString(trimmed) {
		return Entity{
			Value:      trimmed,
			Type:       TypeEmail,
			Normalized: strings.ToLower(trimmed),
		}, nil
	}

	// A leading @ always means a handle; otherwise a dotless string in the
	// handle charset is treated as one.
	if strings.HasPrefix(trimmed, "@") || (!strings.Contains(trimmed, ".") && handleRe.MatchString(trimmed)) {
		if !handleRe.MatchString(trimmed) {
			return Entity{}, fmt.Errorf("%w: %q", ErrUnclassifiable, trimmed)
		}
		return Entity{
			Value:      trimmed,
			Type:       TypeTwitter,
			Normalized: strings.ToLower(strings.TrimPrefix(trimmed, "@")),
		}, nil
	}

	if normalized, ok := normalizeDomain(trimmed); ok {
		return Entity{
			Value:      trimmed,
			Type:       TypeDomain,
			Normalized: normalized,
		}, nil
	}

	return Entity{}, fmt.Errorf("%w: %q", ErrUnclassifiable, trimmed)
}

// matchAddress reports whether the input looks like a chain address and,
// if so, which chain. Ethereum is checked first because its 0x prefix is
// unambiguous; the base58 patterns overlap, so bitcoin's prefix rules win
// over solana's generic charset.
func matchAddress(s string) (Chain, bool) {
	switch {
	case ethAddressRe.MatchString(s):
		return ChainEthereum, true
	case btcAddressRe.MatchString(s):
		return ChainBitcoin, true
	case solAddressRe.MatchString(s):
		return ChainSolana, true
	default:
		return "", false
	}
}

// canonicalAddress returns the chain-specific canonical form.
// Ethereum addresses get an EIP-55 checksum; bitcoin and solana addresses
// are case-sensitive and pass through unchanged.
func canonicalAddress(s string, chain Chain) string {
	if chain == ChainEthereum {
		return common.HexToAddress(s).Hex()
	}
	return s
}

// normalizeDomain strips scheme, path, port, and a leading "www.", lowercases,
// and converts internationalized names to their ASCII (punycode) form.
// Returns false if the remainder is not a structurally valid domain.
func normalizeDomain(s string) (string, bool) {
	host := strings.ToLower(s)

	// Accept an optional scheme by parsing as a URL.
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil || u.Host == "" {
			return "", false
		}
		host = u.Host
	} else {
		// Bare host, possibly with path or port attached.
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
	}

	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", false
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", false
	}
	for _, label := range labels {
		if !domainLabelRe.MatchString(label) {
			return "", false
		}
	}

	return ascii, true
}
