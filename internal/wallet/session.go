package wallet

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Session holds the connected account for one attestation flow. Constructed
// per flow and passed explicitly; never cached as a package-level singleton.
type Session struct {
	// Address is the connected account, normalized to lowercase.
	Address string
	// ChainID is the chain the session is pinned to.
	ChainID int64
}

// NormalizeAddress lowercases and validates a wallet address. The same logical
// identity may appear in mixed case; all derived keys and stored submitters
// use the lowercase form.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !addressPattern.MatchString(addr) {
		return "", fmt.Errorf("wallet: invalid address %q", addr)
	}
	return strings.ToLower(addr), nil
}

// Connect establishes a session on the wanted chain: request account access,
// check the selected network, and switch networks if necessary. Provider
// absence, user rejection, and a failed switch each surface as their own
// sentinel so callers can give the right remediation.
func Connect(ctx context.Context, p Provider, wantChainID int64) (*Session, error) {
	if p == nil {
		return nil, ErrProviderUnavailable
	}

	accounts, err := p.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	addr, err := NormalizeAddress(accounts[0])
	if err != nil {
		return nil, err
	}

	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	if chainID != wantChainID {
		if err := p.SwitchChain(ctx, wantChainID); err != nil {
			return nil, fmt.Errorf("%w: on chain %d, want %d: %v", ErrWrongNetwork, chainID, wantChainID, err)
		}
		chainID, err = p.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		if chainID != wantChainID {
			return nil, fmt.Errorf("%w: still on chain %d after switch, want %d", ErrWrongNetwork, chainID, wantChainID)
		}
	}

	return &Session{Address: addr, ChainID: chainID}, nil
}
