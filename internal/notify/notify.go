// Package notify delivers governance run summaries through Google
// Workspace: a mail notification, a spreadsheet audit row, and an
// archived copy of the validation report in Drive.
//
// Every operation degrades to a logged no-op when no OAuth token is
// configured, so the governance pipeline never fails on an optional
// notification channel.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repogov/internal/config"
)

// Each Workspace service lives on its own host. Collapsing them onto
// one base breaks Sheets, which is not served from www.googleapis.com.
const (
	defaultGmailBase  = "https://gmail.googleapis.com"
	defaultSheetsBase = "https://sheets.googleapis.com"
	defaultUploadBase = "https://www.googleapis.com"
)

// Client talks to the Gmail, Sheets and Drive REST APIs with a single
// bearer token.
type Client struct {
	token     config.Secret
	recipient string
	sheetID   string
	driveDir  string

	gmailBase  string
	sheetsBase string
	uploadBase string

	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg config.GoogleConfig, logger *zap.Logger) *Client {
	return &Client{
		token:      cfg.OAuthToken,
		recipient:  cfg.Recipient,
		sheetID:    cfg.SheetID,
		driveDir:   cfg.DriveDir,
		gmailBase:  defaultGmailBase,
		sheetsBase: defaultSheetsBase,
		uploadBase: defaultUploadBase,
		http:       &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether the connector has a token to send with.
func (c *Client) Configured() bool {
	return c.token.IsSet()
}

// SendMail sends a plain-text notification to the configured recipient.
func (c *Client) SendMail(ctx context.Context, subject, body string) error {
	if !c.Configured() || c.recipient == "" {
		c.logger.Warn("google connector not configured, skipping mail notification")
		return nil
	}

	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		c.recipient, subject, body)
	payload := map[string]string{
		"raw": base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	endpoint := c.gmailBase + "/gmail/v1/users/me/messages/send"
	if err := c.postJSON(ctx, endpoint, payload); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	c.logger.Info("mail notification sent", zap.String("recipient", c.recipient))
	return nil
}

// AppendRow appends one audit row to the configured spreadsheet.
func (c *Client) AppendRow(ctx context.Context, row []string) error {
	if !c.Configured() || c.sheetID == "" {
		c.logger.Warn("google connector not configured, skipping sheet append")
		return nil
	}

	values := make([]any, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	payload := map[string]any{"values": []any{values}}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW",
		c.sheetsBase, url.PathEscape(c.sheetID), url.PathEscape("A:Z"))
	if err := c.postJSON(ctx, endpoint, payload); err != nil {
		return fmt.Errorf("append sheet row: %w", err)
	}

	c.logger.Info("audit row appended", zap.String("sheet_id", c.sheetID))
	return nil
}

// ArchiveReport uploads the serialized validation report to Drive under
// a timestamped name.
func (c *Client) ArchiveReport(ctx context.Context, repo string, report []byte, now time.Time) error {
	if !c.Configured() {
		c.logger.Warn("google connector not configured, skipping report archive")
		return nil
	}

	name := fmt.Sprintf("%s-validation-%s.json", repo, now.UTC().Format("20060102T150405Z"))
	meta := map[string]any{"name": name}
	if c.driveDir != "" {
		meta["parents"] = []string{c.driveDir}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=utf-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", "application/json")
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	if _, err := filePart.Write(report); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}

	endpoint := c.uploadBase + "/upload/drive/v3/files?uploadType=multipart"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())
	if err := c.do(req); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}

	c.logger.Info("validation report archived", zap.String("name", name))
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+c.token.Value())
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	return nil
}
