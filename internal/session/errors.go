package session

import (
	"context"
	"errors"

	"github.com/loganlanou/stationcargo/internal/identity"
)

// AuthenticationError is returned by Login when the provider rejects the
// credentials or cannot be reached. The session is left unchanged.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string { return "authentication failed: " + e.Reason }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// RegistrationError is returned by Register when no account could be created.
type RegistrationError struct {
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string { return "registration failed: " + e.Reason }
func (e *RegistrationError) Unwrap() error { return e.Err }

// SignOutError reports a provider sign-out failure. The local session has
// already been cleared when it is returned.
type SignOutError struct {
	Reason string
	Err    error
}

func (e *SignOutError) Error() string { return "sign-out failed: " + e.Reason }
func (e *SignOutError) Unwrap() error { return e.Err }

// ProfileRefreshError reports a failed profile fetch. It never affects the session.
type ProfileRefreshError struct {
	Reason string
	Err    error
}

func (e *ProfileRefreshError) Error() string { return "profile refresh failed: " + e.Reason }
func (e *ProfileRefreshError) Unwrap() error { return e.Err }

// reason turns a collaborator error into a message fit for a notification.
func reason(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, identity.ErrMissingFields):
		return "Please fill in all fields"
	case errors.Is(err, context.DeadlineExceeded):
		return "The identity service did not respond in time"
	case errors.Is(err, context.Canceled):
		return "The request was cancelled"
	}
	var pe *identity.ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
