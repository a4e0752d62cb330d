// Package mesh dispatches governance events to the configured mesh-node
// webhook endpoint.
//
// Dispatch is strictly best-effort: an unconfigured endpoint is a no-op,
// and any delivery failure is reported to the caller as a warning-level
// concern, never a pipeline failure.
package mesh

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
)

// SignatureHeader carries the HMAC-SHA256 of the payload when a shared
// secret is configured.
const SignatureHeader = "X-Hub-Signature-256"

// EventStateTransition is the event name for lifecycle transitions.
const EventStateTransition = "STATE_TRANSITION"

// Event is the outbound webhook payload.
type Event struct {
	Event            string          `json:"event"`
	Repository       string          `json:"repository"`
	Org              string          `json:"org"`
	CurrentState     lifecycle.State `json:"current_state"`
	NextState        lifecycle.State `json:"next_state"`
	ValidationMatrix map[string]bool `json:"validation_matrix"`
	Timestamp        string          `json:"timestamp"`
}

// BuildEvent assembles a state-transition event from the state document
// and the validation matrix.
func BuildEvent(state *lifecycle.StateDoc, matrix map[string]bool, org, repo string, now time.Time) Event {
	if matrix == nil {
		matrix = map[string]bool{}
	}
	return Event{
		Event:            EventStateTransition,
		Repository:       repo,
		Org:              org,
		CurrentState:     state.Current,
		NextState:        state.Next,
		ValidationMatrix: matrix,
		Timestamp:        now.UTC().Format(time.RFC3339),
	}
}

// Dispatcher posts events to the mesh webhook.
type Dispatcher struct {
	url        string
	secret     config.Secret
	client     *http.Client
	maxRetries uint64
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher from mesh configuration. An empty
// hook URL produces a dispatcher that skips every send.
func NewDispatcher(cfg config.MeshConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		url:        cfg.HookURL,
		secret:     cfg.HookSecret,
		client:     &http.Client{Timeout: cfg.Timeout.Std()},
		maxRetries: uint64(cfg.MaxRetries),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
		logger:     logger,
	}
}

// Enabled reports whether a hook URL is configured.
func (d *Dispatcher) Enabled() bool {
	return d.url != ""
}

// Send posts the event, signing the serialized payload when a shared
// secret is set. Transient failures (network errors, 5xx) are retried
// with exponential backoff; a 4xx response is not retried.
//
// An unconfigured dispatcher logs a warning and returns nil.
func (d *Dispatcher) Send(ctx context.Context, event Event) error {
	if !d.Enabled() {
		d.logger.Warn("mesh hook URL not set, skipping mesh event", zap.String("event", event.Event))
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	operation := func() error {
		return d.post(ctx, payload)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("dispatch %s: %w", event.Event, err)
	}

	d.logger.Info("mesh event sent", zap.String("event", event.Event), zap.String("repository", event.Repository))
	return nil
}

func (d *Dispatcher) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.secret.IsSet() {
		req.Header.Set(SignatureHeader, Sign(payload, d.secret.Value()))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("mesh endpoint returned %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("mesh endpoint returned %d", resp.StatusCode))
	}
}

// Sign computes the payload signature in GitHub webhook format:
// "sha256=<hex digest>".
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
