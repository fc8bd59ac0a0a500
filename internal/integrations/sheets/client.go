package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"pdc-bot/internal/domain"
)

// DefaultTab is the sheet tab rows are appended to when none is configured.
const DefaultTab = "Feedback"

// serviceAccount holds the fields of a service account key we require.
type serviceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// appender is the minimal Sheets API surface required by Client.
type appender interface {
	Append(ctx context.Context, spreadsheetID, writeRange string, row []any) error
}

// Client appends feedback rows to a Google Sheet.
type Client struct {
	api           appender
	spreadsheetID string
	tab           string
}

// New creates a Client over an existing appender.
func New(api appender, spreadsheetID, tab string) (*Client, error) {
	if api == nil {
		return nil, errors.New("sheets: api must not be nil")
	}
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id must not be empty")
	}
	tab = strings.TrimSpace(tab)
	if tab == "" {
		tab = DefaultTab
	}
	return &Client{api: api, spreadsheetID: spreadsheetID, tab: tab}, nil
}

// NewFromServiceAccount builds a Client authenticated with a service account
// key in JSON form.
func NewFromServiceAccount(ctx context.Context, credentialsJSON, spreadsheetID, tab string) (*Client, error) {
	creds, err := ParseServiceAccount(credentialsJSON)
	if err != nil {
		return nil, err
	}
	conf, err := google.JWTConfigFromJSON(creds, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: build JWT config: %w", err)
	}
	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return New(&serviceAppender{values: svc.Spreadsheets.Values}, spreadsheetID, tab)
}

// ParseServiceAccount validates a service account key and unescapes literal
// "\n" sequences in its private key, as produced by single-line env values.
func ParseServiceAccount(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("sheets: service account JSON not set")
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("sheets: service account JSON is invalid: %w", err)
	}
	var sa serviceAccount
	if err := json.Unmarshal([]byte(raw), &sa); err != nil {
		return nil, fmt.Errorf("sheets: service account JSON is invalid: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, errors.New("sheets: service account JSON missing client_email or private_key")
	}
	doc["private_key"] = strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	if _, ok := doc["type"]; !ok {
		doc["type"] = "service_account"
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("sheets: marshal service account: %w", err)
	}
	return out, nil
}

// Name identifies the sink in logs.
func (c *Client) Name() string {
	return "sheets"
}

// AppendFeedback appends one row for rec.
func (c *Client) AppendFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	if err := c.api.Append(ctx, c.spreadsheetID, appendRange(c.tab), feedbackRow(rec)); err != nil {
		return fmt.Errorf("sheets: append feedback: %w", err)
	}
	return nil
}

// appendRange anchors appends at A1 of tab, quoting the sheet name when it is
// not a bare identifier.
func appendRange(tab string) string {
	bare := true
	for _, r := range tab {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			bare = false
			break
		}
	}
	if bare {
		return tab + "!A1"
	}
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!A1"
}

func feedbackRow(rec domain.FeedbackRecord) []any {
	return []any{
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.UserTag,
		rec.UserID,
		rec.Query,
		rec.ShareURL,
		rec.Summary,
		rec.GuildID,
		rec.ChannelID,
		string(rec.Rating),
	}
}

// serviceAppender adapts the generated Sheets client.
type serviceAppender struct {
	values *gsheets.SpreadsheetsValuesService
}

func (a *serviceAppender) Append(ctx context.Context, spreadsheetID, writeRange string, row []any) error {
	_, err := a.values.Append(spreadsheetID, writeRange, &gsheets.ValueRange{
		Values: [][]any{row},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
