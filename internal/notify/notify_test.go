package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repogov/internal/config"
	"github.com/fyrsmithlabs/repogov/internal/logging"
)

func newTestClient(t *testing.T, cfg config.GoogleConfig, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(cfg, logging.NewNop())
	client.gmailBase = server.URL
	client.sheetsBase = server.URL
	client.uploadBase = server.URL
	return client
}

func TestDefaultHostsArePerService(t *testing.T) {
	client := NewClient(config.GoogleConfig{}, logging.NewNop())
	assert.Equal(t, "https://gmail.googleapis.com", client.gmailBase)
	assert.Equal(t, "https://sheets.googleapis.com", client.sheetsBase)
	assert.Equal(t, "https://www.googleapis.com", client.uploadBase)
}

func TestSendMail(t *testing.T) {
	var (
		gotAuth string
		gotRaw  string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		var payload struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotRaw = payload.Raw
		w.WriteHeader(http.StatusOK)
	})

	cfg := config.GoogleConfig{OAuthToken: "tok-123", Recipient: "ops@example.com"}
	client := newTestClient(t, cfg, handler)

	require.NoError(t, client.SendMail(context.Background(), "State advanced", "now in APPROVAL"))
	assert.Equal(t, "Bearer tok-123", gotAuth)

	decoded, err := base64.URLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "To: ops@example.com")
	assert.Contains(t, string(decoded), "Subject: State advanced")
	assert.Contains(t, string(decoded), "now in APPROVAL")
}

func TestSendMail_Unconfigured(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a token")
	})
	client := newTestClient(t, config.GoogleConfig{Recipient: "ops@example.com"}, handler)
	assert.NoError(t, client.SendMail(context.Background(), "s", "b"))
}

func TestAppendRow(t *testing.T) {
	var gotValues [][]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/sheet-1/values/")
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
		var payload struct {
			Values [][]any `json:"values"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotValues = payload.Values
		w.WriteHeader(http.StatusOK)
	})

	cfg := config.GoogleConfig{OAuthToken: "tok", SheetID: "sheet-1"}
	client := newTestClient(t, cfg, handler)

	require.NoError(t, client.AppendRow(context.Background(), []string{"demo-repo", "pass"}))
	require.Len(t, gotValues, 1)
	assert.Equal(t, []any{"demo-repo", "pass"}, gotValues[0])
}

func TestAppendRow_ErrorStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	cfg := config.GoogleConfig{OAuthToken: "tok", SheetID: "sheet-1"}
	client := newTestClient(t, cfg, handler)

	err := client.AppendRow(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestArchiveReport(t *testing.T) {
	var (
		gotContentType string
		gotBody        string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/drive/v3/files", r.URL.Path)
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		gotContentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	})

	cfg := config.GoogleConfig{OAuthToken: "tok", DriveDir: "folder-9"}
	client := newTestClient(t, cfg, handler)

	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	report := []byte(`{"overall":"pass"}`)
	require.NoError(t, client.ArchiveReport(context.Background(), "demo-repo", report, now))

	assert.True(t, strings.HasPrefix(gotContentType, "multipart/related; boundary="))
	assert.Contains(t, gotBody, `demo-repo-validation-20260314T092653Z.json`)
	assert.Contains(t, gotBody, `"parents":["folder-9"]`)
	assert.Contains(t, gotBody, `{"overall":"pass"}`)
}

func TestArchiveReport_Unconfigured(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a token")
	})
	client := newTestClient(t, config.GoogleConfig{}, handler)
	assert.NoError(t, client.ArchiveReport(context.Background(), "demo-repo", nil, time.Now()))
}
