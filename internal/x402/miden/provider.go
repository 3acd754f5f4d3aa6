package miden

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	apierrors "midenpay/internal/errors"
	"midenpay/internal/metrics"
	"midenpay/internal/x402"
)

// Provider is the adapter over the Miden node RPC. It is immutable after
// the one-time genesis registration, so concurrent submit and query calls
// are permitted. No error kind is retried here; retries are the caller's
// responsibility.
type Provider struct {
	rpcURL     string
	reference  ChainReference
	httpClient *http.Client
	metrics    *metrics.Metrics

	genesisOnce       sync.Once
	genesisErr        error
	genesisCommitment string
}

// ProviderOption customizes a Provider.
type ProviderOption func(*Provider)

// WithMetrics attaches an RPC metrics collector.
func WithMetrics(m *metrics.Metrics) ProviderOption {
	return func(p *Provider) { p.metrics = m }
}

// WithHTTPClient overrides the transport (tests).
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.httpClient = c }
}

// NewProvider creates a provider for the node at rpcURL on the given chain.
func NewProvider(rpcURL string, reference ChainReference, timeout time.Duration, opts ...ProviderOption) *Provider {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	p := &Provider{
		rpcURL:    strings.TrimSuffix(rpcURL, "/"),
		reference: reference,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ChainID returns the provider's CAIP-2 chain id.
func (p *Provider) ChainID() string {
	return p.reference.ChainID()
}

// SignerAddresses returns the facilitator's signing addresses for this
// chain. Miden clients prove their own transactions; the facilitator never
// signs on a payer's behalf, so the list is always empty.
func (p *Provider) SignerAddresses() []string {
	return []string{}
}

// statusResponse is the node's status body.
type statusResponse struct {
	ChainTip          uint32 `json:"chainTip"`
	GenesisCommitment string `json:"genesisCommitment"`
}

// submitRequest is the transaction submission body.
type submitRequest struct {
	ProvenTransaction string `json:"provenTransaction"`
	TransactionInputs string `json:"transactionInputs"`
	GenesisCommitment string `json:"genesisCommitment,omitempty"`
}

// submitResponse is the node's submission result.
type submitResponse struct {
	TransactionID string `json:"transactionId"`
}

// accountAsset is one vault entry in the node's account details body.
type accountAsset struct {
	Faucet string `json:"faucet"`
	Amount uint64 `json:"amount"`
}

// accountResponse is the node's account details body.
type accountResponse struct {
	AccountID string         `json:"accountId"`
	Public    bool           `json:"public"`
	Assets    []accountAsset `json:"assets"`
}

// ensureGenesis fetches the genesis block commitment and registers it on
// the RPC client before the first submission. Idempotent; concurrent
// callers share one fetch.
func (p *Provider) ensureGenesis(ctx context.Context) error {
	p.genesisOnce.Do(func() {
		status, err := p.fetchStatus(ctx)
		if err != nil {
			p.genesisErr = err
			return
		}
		p.genesisCommitment = status.GenesisCommitment
		slog.Info("genesis commitment registered",
			"network", p.ChainID(),
			"genesis", status.GenesisCommitment)
	})
	return p.genesisErr
}

// SubmitProvenTransaction relays a verified proven transaction plus its
// state witnesses to the node and returns the node-assigned transaction id.
func (p *Provider) SubmitProvenTransaction(ctx context.Context, provenTx, txInputs []byte) (string, error) {
	if err := p.ensureGenesis(ctx); err != nil {
		return "", err
	}

	body := submitRequest{
		ProvenTransaction: hex.EncodeToString(provenTx),
		TransactionInputs: hex.EncodeToString(txInputs),
		GenesisCommitment: p.genesisCommitment,
	}

	var result submitResponse
	err := p.call(ctx, http.MethodPost, "/v1/transactions", body, &result, classifySubmitError)
	if err != nil {
		return "", err
	}
	if result.TransactionID == "" {
		return "", x402.NewVerificationError(apierrors.ErrCodeSubmissionError,
			fmt.Errorf("node returned empty transaction id"))
	}
	return result.TransactionID, nil
}

// GetAccountBalance queries the account's fungible balance for the given
// faucet. Private accounts (vault not exposed) fail with a query error;
// an absent asset is a zero balance.
func (p *Provider) GetAccountBalance(ctx context.Context, accountHex, faucetHex string) (uint64, error) {
	var result accountResponse
	path := "/v1/accounts/" + accountHex
	err := p.call(ctx, http.MethodGet, path, nil, &result, classifyQueryError)
	if err != nil {
		return 0, err
	}
	if !result.Public {
		return 0, x402.NewVerificationError(apierrors.ErrCodeQueryError,
			fmt.Errorf("account %s is private: vault not exposed", accountHex))
	}
	var balance uint64
	for _, asset := range result.Assets {
		if asset.Faucet == faucetHex {
			balance += asset.Amount
		}
	}
	return balance, nil
}

// BlockHeight returns the node's current chain tip.
func (p *Provider) BlockHeight(ctx context.Context) (uint32, error) {
	status, err := p.fetchStatus(ctx)
	if err != nil {
		return 0, err
	}
	return status.ChainTip, nil
}

func (p *Provider) fetchStatus(ctx context.Context) (statusResponse, error) {
	var status statusResponse
	err := p.call(ctx, http.MethodGet, "/v1/status", nil, &status, classifyQueryError)
	return status, err
}

// errorClassifier maps an HTTP status + body to a provider error kind.
type errorClassifier func(status int, body []byte) error

// call performs one node RPC round trip.
func (p *Provider) call(ctx context.Context, method, path string, reqBody, respBody any, classify errorClassifier) error {
	err := p.roundTrip(ctx, method, path, reqBody, respBody, classify)
	if p.metrics != nil {
		p.metrics.ObserveRPCCall(err)
	}
	return err
}

func (p *Provider) roundTrip(ctx context.Context, method, path string, reqBody, respBody any, classify errorClassifier) error {
	var body io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return x402.NewVerificationError(apierrors.ErrCodeProviderError,
				fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.rpcURL+path, body)
	if err != nil {
		return x402.NewVerificationError(apierrors.ErrCodeProviderError, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return x402.NewVerificationError(apierrors.ErrCodeConnectionError, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return x402.NewVerificationError(apierrors.ErrCodeConnectionError, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, raw)
	}

	if respBody != nil {
		if err := json.Unmarshal(raw, respBody); err != nil {
			return x402.NewVerificationError(apierrors.ErrCodeProviderError,
				fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// classifySubmitError distinguishes a node that refused the transaction
// from one that already admitted it. An already-admitted transaction
// surfaces as transaction_rejected: for at-least-once settlement callers
// treat that as success-with-warning, not failure.
func classifySubmitError(status int, body []byte) error {
	nodeMsg := nodeMessage(body)
	switch status {
	case http.StatusConflict:
		return x402.NewVerificationError(apierrors.ErrCodeTransactionRejected,
			fmt.Errorf("node rejected transaction: %s", nodeMsg))
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return x402.NewVerificationError(apierrors.ErrCodeSubmissionError,
			fmt.Errorf("node refused transaction (%d): %s", status, nodeMsg))
	default:
		return x402.NewVerificationError(apierrors.ErrCodeConnectionError,
			fmt.Errorf("node returned %d: %s", status, nodeMsg))
	}
}

func classifyQueryError(status int, body []byte) error {
	nodeMsg := nodeMessage(body)
	if status >= 500 {
		return x402.NewVerificationError(apierrors.ErrCodeConnectionError,
			fmt.Errorf("node returned %d: %s", status, nodeMsg))
	}
	return x402.NewVerificationError(apierrors.ErrCodeQueryError,
		fmt.Errorf("node returned %d: %s", status, nodeMsg))
}

// nodeMessage extracts the node's error message, falling back to the raw
// body.
func nodeMessage(body []byte) string {
	var decoded struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
