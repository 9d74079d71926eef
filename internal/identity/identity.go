// Package identity defines the identity records of the dashboard and the
// collaborators that authenticate crew members and serve their profiles.
//
// Two backends implement the contracts: Mock, a self-contained demo provider,
// and Remote, an HTTP client for the station identity API. The backend is
// chosen once at construction time.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned when the provider rejects a sign-in.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrMissingFields is returned when required sign-in or sign-up input is empty.
	ErrMissingFields = errors.New("all fields are required")
)

// Authenticator signs crew members in and out.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Grant, error)
	SignUp(ctx context.Context, name, email, password string) (*Grant, error)
	// SignOut ends the provider session behind token. Providers that keep no
	// server-side session may ignore it.
	SignOut(ctx context.Context, token string) error
}

// ProfileSource looks up profile attributes. A nil profile with a nil error
// means no profile exists for userID.
type ProfileSource interface {
	FetchProfile(ctx context.Context, userID string) (*Profile, error)
}

// Provider is a backend that implements both collaborators.
type Provider interface {
	Authenticator
	ProfileSource
}
