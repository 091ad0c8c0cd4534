// Package adminclient is a thin HTTP client for the gateway's admin
// command stream (pkg/adminapi), used by gatewayctl's subcommands.
package adminclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to one gatewayd admin command stream endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the admin command stream listening at addr
// (e.g. "127.0.0.1:7780").
func New(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Session is one entry returned by ListSessions.
type Session struct {
	SessionID string `json:"session_id"`
	OwnerID   string `json:"owner_id"`
	Owned     bool   `json:"owned"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListSessions returns every session known to the gateway and its owner.
func (c *Client) ListSessions() ([]Session, error) {
	resp, err := c.http.Get(c.baseURL + "/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var sessions []Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return sessions, nil
}

// Release asks the gateway to perform release_to_gateway + ack for
// sessionID on behalf of libraryID.
func (c *Client) Release(sessionID, libraryID string) error {
	return c.post(fmt.Sprintf("/v1/sessions/%s/release", sessionID), libraryID)
}

// Acquire asks the gateway to hand sessionID to libraryID.
func (c *Client) Acquire(sessionID, libraryID string) error {
	return c.post(fmt.Sprintf("/v1/sessions/%s/acquire", sessionID), libraryID)
}

func (c *Client) post(path, libraryID string) error {
	body, err := json.Marshal(struct {
		LibraryID string `json:"library_id"`
	}{LibraryID: libraryID})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
}
