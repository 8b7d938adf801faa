// Package client is the consuming side of the REST surface: it owns the
// login session, transparently refreshes expired access tokens, and exposes
// typed calls for the claims, policy, and notification endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. "https://api.example.com".
	BaseURL string
	// HTTPClient is the underlying client; http.DefaultClient when nil.
	HTTPClient *http.Client
	// OnForcedLogout fires exactly once when the session dies from an
	// authentication failure (as opposed to an explicit Logout).
	OnForcedLogout func()
}

// Client wraps the REST surface with an authenticated transport.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *sessionManager
}

// New returns a Client. The caller must Login before authenticated calls.
func New(opts Options) *Client {
	c := &Client{baseURL: strings.TrimRight(opts.BaseURL, "/")}
	c.sessions = newSessionManager(c.refreshSession, opts.OnForcedLogout)

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	inner := base.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	wrapped := *base
	wrapped.Transport = &authTransport{inner: inner, sessions: c.sessions}
	c.http = &wrapped
	return c
}

// Session returns a copy of the current session, or nil when logged out.
func (c *Client) Session() *Session {
	s, _ := c.sessions.current()
	return s
}

// apiError is the server's `{"error": "..."}` body surfaced verbatim.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// StatusCode returns the HTTP status of err when it is a server error, or 0.
func StatusCode(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

type authResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
	Role         string    `json:"role"`
}

// Login authenticates and installs the session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var res authResponse
	err := c.doPublic(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		UserID:       res.UserID,
		Role:         res.Role,
	}
	c.sessions.set(sess)
	cp := *sess
	return &cp, nil
}

// Register creates an account. It does not log in; call Login afterwards.
func (c *Client) Register(ctx context.Context, email, password, name, role string) (userID string, err error) {
	var res struct {
		UserID string `json:"userId"`
	}
	err = c.doPublic(ctx, http.MethodPost, "/auth/register",
		map[string]string{"email": email, "password": password, "name": name, "role": role}, &res)
	if err != nil {
		return "", err
	}
	return res.UserID, nil
}

// Logout revokes the session server-side and always clears local state, even
// when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	sess, _ := c.sessions.current()
	defer c.sessions.clear()
	if sess == nil {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/auth/logout",
		map[string]string{"refreshToken": sess.RefreshToken}, nil)
}

// User is the identity behind the current session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// refreshSession is the sessionManager's refresh round trip. It bypasses the
// auth transport: a 401 here is final, not retryable.
func (c *Client) refreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Transport.(*authTransport).inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var res authResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		UserID:       res.UserID,
		Role:         res.Role,
	}, nil
}

// do performs an authenticated JSON round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.roundTrip(ctx, method, path, body, out, true)
}

// doPublic performs an unauthenticated JSON round trip.
func (c *Client) doPublic(ctx context.Context, method, path string, body, out interface{}) error {
	return c.roundTrip(ctx, method, path, body, out, false)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req = req.WithContext(withAuthed(req.Context()))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &apiError{StatusCode: resp.StatusCode, Message: body.Error}
}
