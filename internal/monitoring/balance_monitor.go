// Package monitoring provides background workers watching facilitator
// operational health.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"midenpay/internal/config"
	x402miden "midenpay/internal/x402/miden"
)

// alertCooldown suppresses repeat alerts for the same account.
const alertCooldown = 6 * time.Hour

// BalanceMonitor periodically checks the watched account's faucet balance
// via the rollup provider and posts a webhook alert when it drops below
// the configured threshold.
type BalanceMonitor struct {
	config     *config.MonitoringConfig
	faucetID   string
	provider   *x402miden.Provider
	httpClient *http.Client

	mu          sync.Mutex
	lastAlerted time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// BalanceAlert is the webhook body sent on low balance.
type BalanceAlert struct {
	Account   string    `json:"account"`
	Faucet    string    `json:"faucet"`
	Balance   uint64    `json:"balance"`
	Threshold uint64    `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBalanceMonitor creates a new balance monitor over the given provider.
func NewBalanceMonitor(cfg *config.MonitoringConfig, faucetID string, provider *x402miden.Provider) *BalanceMonitor {
	return &BalanceMonitor{
		config:   cfg,
		faucetID: faucetID,
		provider: provider,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		stopCh: make(chan struct{}),
	}
}

// Start begins the background worker. No-op when no alert URL or watched
// account is configured.
func (m *BalanceMonitor) Start(ctx context.Context) {
	if m.config.LowBalanceAlertURL == "" || m.config.WatchedAccount == "" {
		slog.Info("balance monitor disabled")
		return
	}

	slog.Info("balance monitor started",
		"account", m.config.WatchedAccount,
		"check_interval", m.config.CheckInterval,
		"threshold", m.config.LowBalanceThreshold)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx)
	}()
}

// Stop gracefully stops the worker
func (m *BalanceMonitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// run is the monitoring loop
func (m *BalanceMonitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *BalanceMonitor) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	balance, err := m.provider.GetAccountBalance(checkCtx, m.config.WatchedAccount, m.faucetID)
	if err != nil {
		slog.Warn("balance query failed", "error", err)
		return
	}

	if balance >= m.config.LowBalanceThreshold {
		return
	}

	m.mu.Lock()
	recentlyAlerted := time.Since(m.lastAlerted) < alertCooldown
	if !recentlyAlerted {
		m.lastAlerted = time.Now()
	}
	m.mu.Unlock()
	if recentlyAlerted {
		return
	}

	m.sendAlert(ctx, BalanceAlert{
		Account:   m.config.WatchedAccount,
		Faucet:    m.faucetID,
		Balance:   balance,
		Threshold: m.config.LowBalanceThreshold,
		Timestamp: time.Now().UTC(),
	})
}

func (m *BalanceMonitor) sendAlert(ctx context.Context, alert BalanceAlert) {
	body, err := json.Marshal(alert)
	if err != nil {
		slog.Error("marshal balance alert", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.LowBalanceAlertURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("build balance alert request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		slog.Warn("balance alert delivery failed", "error", err)
		return
	}
	resp.Body.Close()

	slog.Info("low balance alert sent",
		"account", alert.Account,
		"balance", alert.Balance,
		"status", resp.StatusCode)
}
