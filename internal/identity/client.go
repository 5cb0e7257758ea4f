// Package identity is the boundary with the external identity provider. The
// provider issues sessions out of band; this package only verifies a bearer
// token into a stable owner id and mirrors the provider's user record into
// local storage.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/YAREUGO/shopmall/internal/shoperr"
)

// Verifier resolves a session token to an owner id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a provider client. The timeout bounds every verification
// call; checkout must fail fast rather than wait on a slow provider.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Verify asks the provider to resolve the session token. An invalid or
// expired token maps to ErrUnauthenticated; transport failures surface as
// errors so callers can distinguish "not logged in" from "provider down".
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", shoperr.ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/sessions/verify", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", shoperr.ErrUnauthenticated
	default:
		return "", fmt.Errorf("identity provider: unexpected status %s", res.Status)
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.UserID == "" {
		return "", shoperr.ErrUnauthenticated
	}
	return body.UserID, nil
}
