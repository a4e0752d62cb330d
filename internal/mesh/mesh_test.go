package mesh

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/lifecycle"
	"github.com/fyrsmithlabs/repogov/internal/logging"
)

var fixedNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func testEvent() Event {
	state := &lifecycle.StateDoc{Current: lifecycle.Validation, Next: lifecycle.Approval, Version: "1.0.0", SchemaVersion: "1.0.0"}
	return BuildEvent(state, map[string]bool{"secret_scan": true}, "example-org", "demo-repo", fixedNow)
}

func newDispatcher(url string, secret config.Secret) *Dispatcher {
	return NewDispatcher(config.MeshConfig{
		HookURL:    url,
		HookSecret: secret,
		Timeout:    config.Duration(2 * time.Second),
		MaxRetries: 2,
	}, logging.NewNop())
}

func TestBuildEvent(t *testing.T) {
	event := testEvent()

	assert.Equal(t, EventStateTransition, event.Event)
	assert.Equal(t, "demo-repo", event.Repository)
	assert.Equal(t, "example-org", event.Org)
	assert.Equal(t, lifecycle.Validation, event.CurrentState)
	assert.Equal(t, lifecycle.Approval, event.NextState)
	assert.Equal(t, map[string]bool{"secret_scan": true}, event.ValidationMatrix)
	assert.Equal(t, "2026-06-01T10:00:00Z", event.Timestamp)
}

func TestBuildEvent_NilMatrix(t *testing.T) {
	state := &lifecycle.StateDoc{Current: lifecycle.NewIdea}
	event := BuildEvent(state, nil, "o", "r", fixedNow)
	assert.NotNil(t, event.ValidationMatrix)
}

func TestSend_PostsSignedPayload(t *testing.T) {
	var gotSig string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	d := newDispatcher(server.URL, config.Secret("shared-secret"))
	require.NoError(t, d.Send(context.Background(), testEvent()))

	mac := hmac.New(sha256.New, []byte("shared-secret"))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSig)

	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventStateTransition, decoded.Event)
}

func TestSend_NoSecretNoSignature(t *testing.T) {
	var sawHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header[SignatureHeader]
	}))
	defer server.Close()

	d := newDispatcher(server.URL, "")
	require.NoError(t, d.Send(context.Background(), testEvent()))
	assert.False(t, sawHeader)
}

func TestSend_UnconfiguredIsNoOp(t *testing.T) {
	d := newDispatcher("", "")
	assert.False(t, d.Enabled())
	assert.NoError(t, d.Send(context.Background(), testEvent()))
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := newDispatcher(server.URL, "")
	require.NoError(t, d.Send(context.Background(), testEvent()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSend_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	d := newDispatcher(server.URL, "")
	err := d.Send(context.Background(), testEvent())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSign(t *testing.T) {
	sig := Sign([]byte("payload"), "key")
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, sig)
	// Deterministic
	assert.Equal(t, sig, Sign([]byte("payload"), "key"))
	assert.NotEqual(t, sig, Sign([]byte("payload"), "other-key"))
}
