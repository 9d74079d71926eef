package identity

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

// ProviderError is a rejection reported by the remote identity API.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Is lets callers match a 401 from the provider against ErrInvalidCredentials.
func (e *ProviderError) Is(target error) bool {
	return target == ErrInvalidCredentials && e.Status == http.StatusUnauthorized
}

// Remote talks to the station identity API over HTTP.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote creates a provider for the identity API rooted at baseURL.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type grantResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// SignIn exchanges credentials for a grant.
func (r *Remote) SignIn(ctx context.Context, email, password string) (*Grant, error) {
	var resp grantResponse
	err := r.do(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.User.Valid() {
		return nil, fmt.Errorf("identity provider returned an incomplete user")
	}
	return &Grant{User: resp.User, Token: resp.Token}, nil
}

// SignUp creates an account and returns its grant.
func (r *Remote) SignUp(ctx context.Context, name, email, password string) (*Grant, error) {
	var resp grantResponse
	err := r.do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.User.Valid() {
		return nil, fmt.Errorf("identity provider returned an incomplete user")
	}
	return &Grant{User: resp.User, Token: resp.Token}, nil
}

// SignOut revokes token at the provider.
func (r *Remote) SignOut(ctx context.Context, token string) error {
	return r.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// FetchProfile loads the profile of userID, returning nil when it does not exist.
func (r *Remote) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := r.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(userID), "", nil, &p)
	if err != nil {
		if pe, ok := err.(*ProviderError); ok && pe.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Remote) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &ProviderError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}
	return nil
}
