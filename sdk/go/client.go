package doorlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Doorline HTTP API client.
type Client struct {
	BaseURL     string
	ProjectID   string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, projectID string) *Client {
	return &Client{
		BaseURL:   baseURL,
		ProjectID: projectID,
		Timeout:   10 * time.Second,
	}
}

// AttentionItem is one derived "needs a human" entry.
type AttentionItem struct {
	ID          string  `json:"id"`
	ReasonCode  string  `json:"reason_code"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	Message     string  `json:"message"`
	DeepLinkTab string  `json:"deep_link_tab"`
	SortWeight  float64 `json:"sort_weight,omitempty"`
}

// AttentionResult is the full attention listing for a project.
type AttentionResult struct {
	ProjectID string          `json:"project_id"`
	AsOf      string          `json:"as_of"`
	Items     []AttentionItem `json:"items"`
}

// Project represents the API project model (partial).
type Project struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id,omitempty"`
	Title           string `json:"title"`
	ProjectType     string `json:"project_type"`
	Status          string `json:"status"`
	ClientConfirmed bool   `json:"client_confirmed"`
	Notes           string `json:"notes,omitempty"`
}

// Quote represents a quote (partial).
type Quote struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
	SentAt    *string `json:"sent_at,omitempty"`
}

// Invoice represents an invoice (partial).
type Invoice struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Status     string  `json:"status"`
	Total      float64 `json:"total"`
	AmountPaid float64 `json:"amount_paid"`
	DueDate    *string `json:"due_date,omitempty"`
}

// Job represents a field visit (partial).
type Job struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	JobType        string  `json:"job_type"`
	Status         string  `json:"status"`
	ScheduledDate  *string `json:"scheduled_date,omitempty"`
	Assignee       string  `json:"assignee,omitempty"`
	OutcomeSummary string  `json:"outcome_summary,omitempty"`
}

// Part represents an ordered part (partial).
type Part struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id"`
	Name            string  `json:"name"`
	Status          string  `json:"status,omitempty"`
	PurchaseOrderID *string `json:"purchase_order_id,omitempty"`
	Quantity        int     `json:"quantity,omitempty"`
	ReceivedQty     *int    `json:"received_qty,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Attention returns the derived attention items for the project.
func (c *Client) Attention(ctx context.Context) (AttentionResult, error) {
	var resp AttentionResult
	err := c.do(ctx, http.MethodGet, c.projectPath("attention"), nil, &resp)
	return resp, err
}

// GetProject fetches the project record.
func (c *Client) GetProject(ctx context.Context) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodGet, c.projectPath(""), nil, &resp)
	return resp, err
}

// ConfirmClient marks the client confirmed for upcoming work.
func (c *Client) ConfirmClient(ctx context.Context) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, c.projectPath("confirm"), nil, &resp)
	return resp, err
}

// CreateQuote creates a quote.
func (c *Client) CreateQuote(ctx context.Context, total float64) (Quote, error) {
	var resp Quote
	err := c.do(ctx, http.MethodPost, c.projectPath("quotes"), map[string]any{"total": total}, &resp)
	return resp, err
}

// SetQuoteStatus moves a quote through its lifecycle.
func (c *Client) SetQuoteStatus(ctx context.Context, id, status string) (Quote, error) {
	var resp Quote
	endpoint := c.projectPath(fmt.Sprintf("quotes/%s/status", url.PathEscape(id)))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// CreateInvoice creates an invoice.
func (c *Client) CreateInvoice(ctx context.Context, total float64, dueDate string) (Invoice, error) {
	body := map[string]any{"total": total}
	if dueDate != "" {
		body["due_date"] = dueDate
	}
	var resp Invoice
	err := c.do(ctx, http.MethodPost, c.projectPath("invoices"), body, &resp)
	return resp, err
}

// RecordPayment records a payment against an invoice.
func (c *Client) RecordPayment(ctx context.Context, invoiceID, name string, amount float64) (Invoice, error) {
	body := map[string]any{"name": name, "amount": amount}
	var resp Invoice
	endpoint := c.projectPath(fmt.Sprintf("invoices/%s/payments", url.PathEscape(invoiceID)))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// CreateJob creates a field visit.
func (c *Client) CreateJob(ctx context.Context, jobType, scheduledDate string) (Job, error) {
	body := map[string]any{"job_type": jobType}
	if scheduledDate != "" {
		body["scheduled_date"] = scheduledDate
	}
	var resp Job
	err := c.do(ctx, http.MethodPost, c.projectPath("jobs"), body, &resp)
	return resp, err
}

// CompleteJob completes a visit with a field outcome summary.
func (c *Client) CompleteJob(ctx context.Context, id, outcomeSummary string) (Job, error) {
	body := map[string]any{"outcome_summary": outcomeSummary}
	var resp Job
	endpoint := c.projectPath(fmt.Sprintf("jobs/%s/complete", url.PathEscape(id)))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// ReceivePart records delivered quantity for a part.
func (c *Client) ReceivePart(ctx context.Context, id string, qty int) (Part, error) {
	body := map[string]any{"quantity": qty}
	var resp Part
	endpoint := c.projectPath(fmt.Sprintf("parts/%s/receive", url.PathEscape(id)))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Events returns recent events for the project.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events?project_id=" + url.QueryEscape(c.ProjectID)
	if limit > 0 {
		endpoint = fmt.Sprintf("%s&limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) projectPath(p string) string {
	project := url.PathEscape(c.ProjectID)
	if p == "" {
		return fmt.Sprintf("v0/projects/%s", project)
	}
	return fmt.Sprintf("v0/projects/%s/%s", project, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
