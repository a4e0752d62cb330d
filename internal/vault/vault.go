// Package vault syncs release metadata with a HashiCorp Vault KV store.
//
// The connector degrades gracefully: without VAULT_ADDR and VAULT_TOKEN
// every operation is a logged no-op, so CI never fails on missing Vault
// credentials.
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
)

// ErrNotConfigured is returned by read operations when the connector
// has no address or token. Write-side operations treat it as a no-op.
var ErrNotConfigured = errors.New("vault not configured")

// ReleaseSecretName is the KV entry release metadata is written to.
const ReleaseSecretName = "release/latest"

// Client talks to the Vault KV HTTP API.
type Client struct {
	addr   string
	token  config.Secret
	kvPath string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a Vault client from configuration.
func NewClient(cfg config.VaultConfig, logger *zap.Logger) *Client {
	return &Client{
		addr:   strings.TrimRight(cfg.Addr, "/"),
		token:  cfg.Token,
		kvPath: cfg.KVPath,
		http:   &http.Client{Timeout: cfg.Timeout.Std()},
		logger: logger,
	}
}

// Configured reports whether both address and token are present.
func (c *Client) Configured() bool {
	return c.addr != "" && c.token.IsSet()
}

// Read fetches a KV secret and returns its data fields.
func (c *Client) Read(ctx context.Context, name string) (map[string]any, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.secretURL(name), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", c.token.Value())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vault read %s: HTTP %d", name, resp.StatusCode)
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("vault read %s: %w", name, err)
	}
	return body.Data, nil
}

// Write stores a KV secret. Unconfigured clients log and skip.
func (c *Client) Write(ctx context.Context, name string, payload map[string]any) error {
	if !c.Configured() {
		c.logger.Warn("vault address or token not set, skipping write", zap.String("secret", name))
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.secretURL(name), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("X-Vault-Token", c.token.Value())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("vault write %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("vault write %s: HTTP %d", name, resp.StatusCode)
	}

	c.logger.Info("vault secret written", zap.String("secret", name))
	return nil
}

// SyncRelease writes the current lifecycle state and version to the
// release metadata secret.
func (c *Client) SyncRelease(ctx context.Context, state *lifecycle.StateDoc, now time.Time) error {
	version := state.Version
	if version == "" {
		version = "0.0.0"
	}
	return c.Write(ctx, ReleaseSecretName, map[string]any{
		"current_state": string(state.Current),
		"version":       version,
		"synced_at":     now.UTC().Format(time.RFC3339),
	})
}

func (c *Client) secretURL(name string) string {
	return fmt.Sprintf("%s/v1/%s/%s", c.addr, c.kvPath, name)
}
