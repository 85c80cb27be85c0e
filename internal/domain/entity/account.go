package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ChainID identifies a blockchain network (e.g. "ethereum", "polygon", "solana").
type ChainID string

// AccountKind classifies the origin of a tracked account.
type AccountKind string

const (
	KindWallet   AccountKind = "wallet"
	KindExchange AccountKind = "exchange"
	KindDEX      AccountKind = "dex"
)

// AccountStatus reflects the connection state of an account.
type AccountStatus string

const (
	StatusDisconnected AccountStatus = "disconnected"
	StatusConnected    AccountStatus = "connected"
	StatusError        AccountStatus = "error"
)

// Platform is the closed set of chain families an adapter variant exists for.
type Platform string

const (
	PlatformEVM           Platform = "evm"
	PlatformMultiChainEVM Platform = "multichain-evm"
	PlatformSolana        Platform = "solana"
	PlatformSui           Platform = "sui"
)

// platformAliases maps the free-form platform labels historically produced by
// connection flows onto the closed Platform set. Normalization happens once, at
// the account-creation boundary.
var platformAliases = map[string]Platform{
	"evm":            PlatformEVM,
	"ethereum":       PlatformEVM,
	"single-evm":     PlatformEVM,
	"multichain-evm": PlatformMultiChainEVM,
	"multi-chain evm": PlatformMultiChainEVM,
	"multichain evm": PlatformMultiChainEVM,
	"multi-evm":      PlatformMultiChainEVM,
	"solana":         PlatformSolana,
	"sol":            PlatformSolana,
	"sui":            PlatformSui,
}

// NormalizePlatform resolves a raw platform label (including legacy uppercase
// aliases) to its canonical Platform value.
func NormalizePlatform(raw string) (Platform, error) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &ValidationError{Field: "platform", Reason: fmt.Sprintf("unknown platform %q", raw)}
	}
	return p, nil
}

// TokenRef is a user-declared token balance to track beyond the native currency.
type TokenRef struct {
	ContractAddress string  `json:"contractAddress" yaml:"contractAddress"`
	Symbol          string  `json:"symbol" yaml:"symbol"`
	Name            string  `json:"name,omitempty" yaml:"name,omitempty"`
	Decimals        uint8   `json:"decimals" yaml:"decimals"`
	Chain           ChainID `json:"chainId" yaml:"chainId"`
}

// Account is a connected wallet/exchange identity the user tracks. Only the
// account list is durable; assets, prices and loading state are rebuilt fresh
// every run.
type Account struct {
	ID             string        `json:"id"`
	Kind           AccountKind   `json:"kind"`
	Platform       Platform      `json:"platform"`
	Label          string        `json:"label,omitempty"`
	Status         AccountStatus `json:"status"`
	Addresses      []string      `json:"addresses"`
	DeclaredChains []ChainID     `json:"declaredChains"`
	TrackedTokens  []TokenRef    `json:"trackedTokens,omitempty"`
	LastSyncAt     *time.Time    `json:"lastSyncAt,omitempty"`
}

// AccountPatch carries a partial account update; nil fields are left unchanged.
type AccountPatch struct {
	Label          *string        `json:"label,omitempty"`
	Status         *AccountStatus `json:"status,omitempty"`
	Addresses      []string       `json:"addresses,omitempty"`
	DeclaredChains []ChainID      `json:"declaredChains,omitempty"`
	TrackedTokens  []TokenRef     `json:"trackedTokens,omitempty"`
}

// DisplayLabel returns the user-facing source label for asset rows produced by
// this account.
func (a Account) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return string(a.Platform)
}

// NormalizeAccount canonicalizes mutable account fields: addresses are
// lowercased and deduplicated, declared chains deduplicated, both sorted for
// deterministic iteration. The normalized slices are fresh allocations; the
// caller's slices are left untouched.
func NormalizeAccount(a *Account) {
	seen := make(map[string]struct{}, len(a.Addresses))
	addrs := make([]string, 0, len(a.Addresses))
	for _, addr := range a.Addresses {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	a.Addresses = addrs
	sort.Strings(a.Addresses)

	seenChains := make(map[ChainID]struct{}, len(a.DeclaredChains))
	chains := make([]ChainID, 0, len(a.DeclaredChains))
	for _, c := range a.DeclaredChains {
		if c == "" {
			continue
		}
		if _, dup := seenChains[c]; dup {
			continue
		}
		seenChains[c] = struct{}{}
		chains = append(chains, c)
	}
	a.DeclaredChains = chains
	sort.Slice(a.DeclaredChains, func(i, j int) bool { return a.DeclaredChains[i] < a.DeclaredChains[j] })
}

// ValidateAccount enforces the structural invariants an account must satisfy
// before it enters the store. Connected accounts must carry at least one
// address; EVM platforms must carry hex addresses.
func ValidateAccount(a Account) error {
	if a.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	switch a.Kind {
	case KindWallet, KindExchange, KindDEX:
	default:
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", a.Kind)}
	}
	switch a.Platform {
	case PlatformEVM, PlatformMultiChainEVM, PlatformSolana, PlatformSui:
	default:
		return &ValidationError{Field: "platform", Reason: fmt.Sprintf("unknown platform %q", a.Platform)}
	}
	if a.Status == StatusConnected && len(a.Addresses) == 0 {
		return &ValidationError{Field: "addresses", Reason: "connected account must have at least one address"}
	}
	if a.Platform == PlatformEVM || a.Platform == PlatformMultiChainEVM {
		for _, addr := range a.Addresses {
			if !IsHexAddress(addr) {
				return &ValidationError{Field: "addresses", Reason: fmt.Sprintf("invalid EVM address %q", addr)}
			}
		}
	}
	for _, t := range a.TrackedTokens {
		if t.Symbol == "" {
			return &ValidationError{Field: "trackedTokens", Reason: "token symbol must not be empty"}
		}
		if t.Chain == "" {
			return &ValidationError{Field: "trackedTokens", Reason: fmt.Sprintf("token %s missing chain id", t.Symbol)}
		}
		if t.ContractAddress == "" {
			return &ValidationError{Field: "trackedTokens", Reason: fmt.Sprintf("token %s missing contract address", t.Symbol)}
		}
	}
	return nil
}

// IsHexAddress reports whether s looks like a 0x-prefixed 20-byte hex address.
func IsHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
