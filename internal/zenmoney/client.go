// Package zenmoney speaks the remote ledger's diff protocol. The cache is a
// read-only mirror: every request sends a zero client timestamp and no local
// changes, so the server never receives writes.
package zenmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database/repository"
)

// DiffPage is one window of the incremental diff feed. Slices carry new and
// changed records since the requesting cursor; Deletions pairs with them.
// ServerTimestamp is the cursor that makes this page durable once applied.
type DiffPage struct {
	Instruments     []repository.Instrument     `json:"instrument"`
	Users           []repository.User           `json:"user"`
	Accounts        []repository.Account        `json:"account"`
	Tags            []repository.Tag            `json:"tag"`
	Merchants       []repository.Merchant       `json:"merchant"`
	Transactions    []repository.Transaction    `json:"transaction"`
	Budgets         []repository.Budget         `json:"budget"`
	Reminders       []repository.Reminder       `json:"reminder"`
	ReminderMarkers []repository.ReminderMarker `json:"reminderMarker"`
	Deletions       []repository.Deletion       `json:"deletion"`
	ServerTimestamp int64                       `json:"serverTimestamp"`
	HasMore         bool                        `json:"hasMore"`
}

// Records counts entity records on the page, deletions excluded.
func (p *DiffPage) Records() int {
	return len(p.Instruments) + len(p.Users) + len(p.Accounts) + len(p.Tags) +
		len(p.Merchants) + len(p.Transactions) + len(p.Budgets) +
		len(p.Reminders) + len(p.ReminderMarkers)
}

// Suggestion is the server's category guess for a payee string.
type Suggestion struct {
	Payee    string   `json:"payee"`
	Tags     []string `json:"tag"`
	Merchant *string  `json:"merchant"`
}

// Client is the remote ledger surface the sync engine and analytics depend
// on. Implementations must be safe for concurrent use.
type Client interface {
	FetchDiff(ctx context.Context, cursor int64) (*DiffPage, error)
	SuggestCategory(ctx context.Context, payee string) (*Suggestion, error)
}

// HTTPClient talks to the live API over HTTPS with bearer-token auth.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type diffRequest struct {
	CurrentClientTimestamp int64 `json:"currentClientTimestamp"`
	ServerTimestamp        int64 `json:"serverTimestamp"`
}

// FetchDiff requests everything changed since cursor. Network failures map
// to ErrTransport, malformed responses to ErrProtocol.
func (c *HTTPClient) FetchDiff(ctx context.Context, cursor int64) (*DiffPage, error) {
	body := diffRequest{
		CurrentClientTimestamp: time.Now().Unix(),
		ServerTimestamp:        cursor,
	}
	var page DiffPage
	if err := c.post(ctx, "/v8/diff/", body, &page); err != nil {
		return nil, err
	}
	if page.ServerTimestamp == 0 {
		return nil, fmt.Errorf("%w: diff response missing serverTimestamp", apperrors.ErrProtocol)
	}
	if page.ServerTimestamp < cursor {
		return nil, fmt.Errorf("%w: server cursor went backwards (%d < %d)",
			apperrors.ErrProtocol, page.ServerTimestamp, cursor)
	}
	return &page, nil
}

// SuggestCategory asks the server to categorize a payee string.
func (c *HTTPClient) SuggestCategory(ctx context.Context, payee string) (*Suggestion, error) {
	req := map[string]string{"payee": payee}
	var s Suggestion
	if err := c.post(ctx, "/v8/suggest/", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", apperrors.ErrProtocol, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrTransport, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: %s returned %d: %s",
			apperrors.ErrTransport, path, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperrors.ErrProtocol, path, err)
	}
	return nil
}
