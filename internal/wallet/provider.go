// Package wallet models the wallet provider boundary: account access, chain
// selection, and the session object the orchestration flow carries instead of
// module-level globals.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for the provider boundary. User rejection and a missing
// provider are distinct, expected failures, not system faults.
var (
	ErrProviderUnavailable = errors.New("wallet: no provider available; install a wallet extension or configure an RPC endpoint")
	ErrUserRejected        = errors.New("wallet: request rejected by user")
	ErrWrongNetwork        = errors.New("wallet: connected to the wrong network")
	ErrNoAccounts          = errors.New("wallet: provider returned no accounts")
)

// Provider exposes the wallet operations the attestation flow needs.
type Provider interface {
	// RequestAccounts asks the provider for account access and returns the
	// available addresses. A user-declined request returns ErrUserRejected.
	RequestAccounts(ctx context.Context) ([]string, error)
	// ChainID returns the provider's current chain id.
	ChainID(ctx context.Context) (int64, error)
	// SwitchChain asks the provider to select the given chain.
	SwitchChain(ctx context.Context, chainID int64) error
}

// RPCProvider implements Provider over a JSON-RPC HTTP endpoint.
type RPCProvider struct {
	endpoint   string
	httpClient *http.Client
}

// NewRPCProvider returns a Provider backed by the given JSON-RPC endpoint.
func NewRPCProvider(endpoint string) *RPCProvider {
	return &RPCProvider{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// EIP-1193 user rejection code.
const codeUserRejected = 4001

func (p *RPCProvider) call(ctx context.Context, method string, params []any, result any) error {
	if p == nil || p.endpoint == "" {
		return ErrProviderUnavailable
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wallet: rpc %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wallet: rpc %s status=%d body=%s", method, resp.StatusCode, string(b))
	}
	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("wallet: rpc %s decode: %w", method, err)
	}
	if out.Error != nil {
		if out.Error.Code == codeUserRejected {
			return ErrUserRejected
		}
		return fmt.Errorf("wallet: rpc %s: %s (code %d)", method, out.Error.Message, out.Error.Code)
	}
	if result != nil {
		if err := json.Unmarshal(out.Result, result); err != nil {
			return fmt.Errorf("wallet: rpc %s result: %w", method, err)
		}
	}
	return nil
}

// RequestAccounts asks the endpoint for its accounts.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, "eth_requestAccounts", []any{}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID returns the endpoint's chain id (decoded from the hex quantity).
func (p *RPCProvider) ChainID(ctx context.Context) (int64, error) {
	var hexID string
	if err := p.call(ctx, "eth_chainId", []any{}, &hexID); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(hexID, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("wallet: bad chain id %q: %w", hexID, err)
	}
	return id, nil
}

// SwitchChain asks the endpoint to switch to the given chain.
func (p *RPCProvider) SwitchChain(ctx context.Context, chainID int64) error {
	params := []any{map[string]string{"chainId": "0x" + strconv.FormatInt(chainID, 16)}}
	return p.call(ctx, "wallet_switchEthereumChain", params, nil)
}
