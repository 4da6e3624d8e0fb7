// Package ticketsdk is a typed client for the event ticketing gateway.
package ticketsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

type Event struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

type Ticket struct {
	ID        string `json:"id"`
	EventID   string `json:"eventId"`
	EventName string `json:"eventName"`
	Holder    string `json:"holder"`
	Status    string `json:"status"`
}

// IssueRequest asks the ledger to mint Count tickets for one holder.
type IssueRequest struct {
	EventID   string
	EventName string
	Count     int
	Holder    string
	Status    string
}

// APIError is a non-2xx gateway response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a gateway 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) CreateEvent(ctx context.Context, e Event) error {
	_, err := c.do(ctx, http.MethodPost, "/events", e)
	return err
}

func (c *Client) ReadEvent(ctx context.Context, id string) (*Event, error) {
	b, err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var out Event
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	b, err := c.do(ctx, http.MethodGet, "/allevents", nil)
	if err != nil {
		return nil, err
	}
	var out []Event
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEvent replaces name, date and location of the event with e.ID.
func (c *Client) UpdateEvent(ctx context.Context, e Event) error {
	_, err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(e.ID), map[string]string{
		"name": e.Name, "date": e.Date, "location": e.Location,
	})
	return err
}

// DeleteEvent returns the ledger's confirmation text.
func (c *Client) DeleteEvent(ctx context.Context, id string) (string, error) {
	b, err := c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil)
	return string(b), err
}

func (c *Client) CreateTickets(ctx context.Context, in IssueRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/tickets", map[string]any{
		"eventId":   in.EventID,
		"eventName": in.EventName,
		"count":     in.Count,
		"holder":    in.Holder,
		"status":    in.Status,
	})
	return err
}

func (c *Client) ReadTicket(ctx context.Context, id string) (*Ticket, error) {
	b, err := c.do(ctx, http.MethodGet, "/tickets/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var out Ticket
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTicketStatus(ctx context.Context, id, status string) error {
	_, err := c.do(ctx, http.MethodPut, "/tickets/"+url.PathEscape(id), map[string]string{"status": status})
	return err
}

func (c *Client) DeleteTicket(ctx context.Context, id string) (string, error) {
	b, err := c.do(ctx, http.MethodDelete, "/tickets/"+url.PathEscape(id), nil)
	return string(b), err
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, b)
	}
	return b, nil
}

func decodeError(status int, b []byte) error {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(b, &env); err != nil || env.Error.Message == "" {
		return &APIError{Status: status, Message: strings.TrimSpace(string(b))}
	}
	return &APIError{Status: status, Code: env.Error.Code, Message: env.Error.Message}
}
