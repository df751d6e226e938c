// Package client talks to the bulletin HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"ms-bulletin/internal/models"
)

// APIError is any failed request. Status is 0 when the server could not be
// reached at all.
type APIError struct {
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsAuthError reports whether the caller should log in again.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	token   string
}

// New returns a client for baseURL, the origin that serves /api.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// SetToken sends token as a bearer credential on later requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the admin token from the cookie jar after Login, or the
// one given to SetToken.
func (c *Client) Token() string {
	if c.token != "" {
		return c.token
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || c.HTTP.Jar == nil {
		return ""
	}
	for _, ck := range c.HTTP.Jar.Cookies(u) {
		if ck.Name == "token" {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) request(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api"+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &APIError{Message: "Network error: Could not connect to server", Status: 0}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Message: errorMessage(resp), Status: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	fallback := fmt.Sprintf("Request failed with status %d", resp.StatusCode)

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fallback
	}
	switch {
	case body.Error != "":
		return body.Error
	case body.Message != "":
		return body.Message
	default:
		return fallback
	}
}

func (c *Client) Login(ctx context.Context, password string) error {
	return c.request(ctx, http.MethodPost, "/admin/login", models.LoginRequest{Password: password}, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.request(ctx, http.MethodPost, "/admin/logout", nil, nil)
	c.token = ""
	return err
}

// AdminEvents lists every event, including those awaiting approval.
func (c *Client) AdminEvents(ctx context.Context) ([]models.Event, error) {
	var evs []models.Event
	err := c.request(ctx, http.MethodGet, "/admin/events", nil, &evs)
	return evs, err
}

func (c *Client) ApproveEvent(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPatch, "/events/"+url.PathEscape(id)+"/approve", nil, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ApprovedEvents(ctx context.Context) ([]models.Event, error) {
	var evs []models.Event
	err := c.request(ctx, http.MethodGet, "/events", nil, &evs)
	return evs, err
}

func (c *Client) Upcoming(ctx context.Context) (models.UpcomingEvents, error) {
	var u models.UpcomingEvents
	err := c.request(ctx, http.MethodGet, "/events/upcoming", nil, &u)
	return u, err
}

func (c *Client) Submit(ctx context.Context, req models.SubmitEventRequest) (models.SubmitEventResponse, error) {
	var resp models.SubmitEventResponse
	err := c.request(ctx, http.MethodPost, "/add", req, &resp)
	return resp, err
}
