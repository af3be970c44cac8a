package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors mapped from identity-service responses.
var (
	ErrDuplicateEmail     = errors.New("identity: email already registered")
	ErrWeakPassword       = errors.New("identity: password does not meet requirements")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrUnauthorized       = errors.New("identity: session invalid or expired")
)

// ServiceError carries the remote service's message for logging; handlers
// should surface only a generic message to users.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("identity: service error (%d): %s", e.StatusCode, e.Message)
}

// AuthUser is the identity service's view of an account.
type AuthUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Identities       []Identity `json:"identities,omitempty"`
}

// Identity is one attached login method (OAuth provider entry).
type Identity struct {
	Provider     string         `json:"provider"`
	IdentityData map[string]any `json:"identity_data,omitempty"`
}

// Email returns the provider-supplied email, if any.
func (i Identity) Email() string {
	if v, ok := i.IdentityData["email"].(string); ok {
		return v
	}
	return ""
}

// Name returns the provider-supplied display name, if any.
func (i Identity) Name() string {
	for _, k := range []string{"full_name", "name", "user_name"} {
		if v, ok := i.IdentityData[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// IdentityFor returns the attached identity for the given provider, if any.
func (u *AuthUser) IdentityFor(provider string) (Identity, bool) {
	for _, id := range u.Identities {
		if id.Provider == provider {
			return id, true
		}
	}
	return Identity{}, false
}

// Session is an issued identity-service session.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	User         AuthUser `json:"user"`
}

// Client talks to a Supabase-style auth (GoTrue) REST API. All calls carry a
// request timeout; a hung identity service must not hang a submit forever.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	hub     *Hub
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		hub:     NewHub(),
	}
}

// Hub returns the session-change notification hub fed by callback handling.
func (c *Client) Hub() *Hub {
	return c.hub
}

// SignUp creates an email+password account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthUser, *Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var out struct {
		Session
		// Without auto-confirm the signup response is the bare user object.
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := c.post(ctx, "/auth/v1/signup", "", body, &out); err != nil {
		return nil, nil, err
	}

	if out.AccessToken != "" {
		return &out.Session.User, &out.Session, nil
	}
	return &AuthUser{ID: out.ID, Email: out.Email}, nil, nil
}

// SignInWithPassword exchanges email+password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var session Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser fetches the user behind an access token, including attached
// OAuth identities.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	var user AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, &ServiceError{Message: "failed to parse user response"}
	}
	return &user, nil
}

// SignOut revokes the session behind the token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnauthorized {
		return decodeError(resp)
	}
	return nil
}

// AuthorizeURL builds the provider redirect URL. The caller navigates the
// browser; the provider round-trip re-enters the app at the callback route.
func (c *Client) AuthorizeURL(provider, redirectTo string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// RequestPasswordReset asks the identity service to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	body := map[string]any{"email": email}
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.post(ctx, path, "", body, nil)
}

// UpdatePassword sets a new password on the session behind the token.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	body := map[string]any{"password": newPassword}
	return c.put(ctx, "/auth/v1/user", accessToken, body, nil)
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) put(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, token, body, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	c.setHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ServiceError{Message: "failed to parse response"}
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func decodeError(resp *http.Response) error {
	var errResp map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&errResp)

	msg := "request failed"
	for _, key := range []string{"msg", "message", "error_description", "error"} {
		if m, ok := errResp[key].(string); ok && m != "" {
			msg = m
			break
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already registered") || strings.Contains(lower, "already been registered"):
		return ErrDuplicateEmail
	case strings.Contains(lower, "password") && resp.StatusCode == http.StatusUnprocessableEntity:
		return ErrWeakPassword
	case strings.Contains(lower, "invalid login credentials"):
		return ErrInvalidCredentials
	}

	return &ServiceError{StatusCode: resp.StatusCode, Message: msg}
}
