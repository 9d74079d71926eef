package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMockDelay mirrors the latency of a real provider round trip.
const DefaultMockDelay = time.Second

// DemoUserID is the identifier of the fixed demo crew member.
const DemoUserID = "crew-davis"

// Mock is an in-process provider: any non-empty credentials sign in as the
// demo commander, and sign-ups are remembered for profile lookups.
type Mock struct {
	delay time.Duration

	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewMock creates a mock provider that waits delay before answering.
func NewMock(delay time.Duration) *Mock {
	return &Mock{
		delay: delay,
		profiles: map[string]*Profile{
			DemoUserID: demoProfile(""),
		},
	}
}

func demoProfile(email string) *Profile {
	if email == "" {
		email = "astronaut@iss.space"
	}
	return &Profile{
		ID:              DemoUserID,
		Name:            "Commander Davis",
		Email:           email,
		Role:            "Commander",
		Bio:             "Expedition commander responsible for cargo operations.",
		PreferredModule: "Destiny",
	}
}

// SignIn accepts any non-empty credentials and returns the demo identity.
func (m *Mock) SignIn(ctx context.Context, email, password string) (*Grant, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	p := demoProfile(email)
	return &Grant{User: userFromProfile(p)}, nil
}

// SignUp builds a new identity from the supplied name and email.
func (m *Mock) SignUp(ctx context.Context, name, email, password string) (*Grant, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	p := &Profile{
		ID:    ulid.Make().String(),
		Name:  name,
		Email: email,
		Role:  "Astronaut",
	}

	m.mu.Lock()
	m.profiles[p.ID] = p
	m.mu.Unlock()

	return &Grant{User: userFromProfile(p)}, nil
}

// SignOut always succeeds after the simulated delay.
func (m *Mock) SignOut(ctx context.Context, _ string) error {
	return m.wait(ctx)
}

// FetchProfile returns the remembered profile for userID, or nil.
func (m *Mock) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *Mock) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func userFromProfile(p *Profile) *User {
	pc := *p
	return &User{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		Profile:   &pc,
	}
}
