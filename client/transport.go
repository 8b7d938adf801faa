package client

import (
	"context"
	"io"
	"net/http"
)

type authedKey struct{}

// withAuthed marks a request as needing the Bearer header and the 401-retry
// path.
func withAuthed(ctx context.Context) context.Context {
	return context.WithValue(ctx, authedKey{}, true)
}

func isAuthed(ctx context.Context) bool {
	v, _ := ctx.Value(authedKey{}).(bool)
	return v
}

// authTransport attaches the access token and handles authentication
// failures: on a 401 it joins the single in-flight refresh, retries the
// request once with the new token, and on a second 401 (or a failed refresh)
// gives up and forces the logout path.
type authTransport struct {
	inner    http.RoundTripper
	sessions *sessionManager
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !isAuthed(req.Context()) {
		return t.inner.RoundTrip(req)
	}

	sess, gen := t.sessions.current()
	if sess == nil {
		return nil, ErrNoSession
	}

	resp, err := t.send(req, sess.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	refreshed, err := t.sessions.refresh(req.Context(), gen)
	if err != nil {
		return nil, err
	}
	resp, err = t.send(req, refreshed.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.sessions.forceLogout()
	}
	return resp, nil
}

// send issues req with the given token, rewinding the body for retries.
func (t *authTransport) send(req *http.Request, accessToken string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	clone.Header.Set("Authorization", "Bearer "+accessToken)
	return t.inner.RoundTrip(clone)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
