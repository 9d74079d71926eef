package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/storage/db"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserNotFound       = errors.New("user not found")
)

// DefaultRole is given to self-registered crew members.
const DefaultRole = "Astronaut"

// Service is the station identity provider: accounts, access tokens and
// profiles.
type Service struct {
	queries *db.Queries
	tokens  *Tokens
	params  PasswordParams
	cache   *profileCache
	group   singleflight.Group
}

// NewService creates the identity provider. Call Close to stop the profile
// cache janitor.
func NewService(queries *db.Queries, tokens *Tokens) *Service {
	return &Service{
		queries: queries,
		tokens:  tokens,
		params:  DefaultPasswordParams,
		cache:   newProfileCache(5 * time.Minute), // 5 minute cache
	}
}

// WithPasswordParams overrides the argon2id cost, e.g. to keep tests fast.
func (s *Service) WithPasswordParams(p PasswordParams) *Service {
	s.params = p
	return s
}

func (s *Service) Close() {
	s.cache.Stop()
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*identity.Grant, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email address is not valid", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := HashPassword(password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		ID:           ulid.Make().String(),
		Email:        email,
		Name:         name,
		Role:         DefaultRole,
		PasswordHash: hash,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("crew member registered", "user_id", u.ID)
	return s.grant(u)
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*identity.Grant, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := VerifyPassword(password, u.PasswordHash)
	if err != nil {
		slog.Error("stored password hash is unreadable", "user_id", u.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.grant(u)
}

func (s *Service) grant(u db.User) (*identity.Grant, error) {
	token, _, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &identity.Grant{User: toUser(u), Token: token}, nil
}

// Authenticate validates an access token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.queries.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	expires := time.Now().Add(s.tokens.ttl)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := s.queries.RevokeToken(ctx, claims.ID, db.FormatTime(expires)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// PurgeRevocations forgets revocations of tokens that have expired.
func (s *Service) PurgeRevocations(ctx context.Context) (int64, error) {
	return s.queries.DeleteExpiredRevocations(ctx, db.FormatTime(time.Now()))
}

// Profile returns the profile of userID, or ErrUserNotFound.
func (s *Service) Profile(ctx context.Context, userID string) (*identity.Profile, error) {
	if p := s.cache.Get(userID); p != nil {
		return p, nil
	}

	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		u, err := s.queries.GetUserByID(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user: %w", err)
		}
		p := toProfile(u)
		s.cache.Set(userID, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*identity.Profile)
	return &cp, nil
}

// ProfileUpdate holds the editable profile attributes.
type ProfileUpdate struct {
	Name            string
	Role            string
	Bio             string
	AvatarURL       string
	PreferredModule string
}

// UpdateProfile changes the profile of userID and drops it from the cache.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*identity.Profile, error) {
	u, err := s.queries.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if name := strings.TrimSpace(upd.Name); name != "" {
		u.Name = name
	}
	if role := strings.TrimSpace(upd.Role); role != "" {
		u.Role = role
	}
	u.Bio = nullString(upd.Bio)
	u.AvatarUrl = nullString(upd.AvatarURL)
	u.PreferredModule = nullString(upd.PreferredModule)

	err = s.queries.UpdateUserProfile(ctx, db.UpdateUserProfileParams{
		ID:              u.ID,
		Name:            u.Name,
		Role:            u.Role,
		Bio:             u.Bio,
		AvatarUrl:       u.AvatarUrl,
		PreferredModule: u.PreferredModule,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.cache.Delete(userID)
	return toProfile(u), nil
}

func toUser(u db.User) *identity.User {
	p := toProfile(u)
	return &identity.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		Profile:   p,
	}
}

func toProfile(u db.User) *identity.Profile {
	return &identity.Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Bio:             u.Bio.String,
		AvatarURL:       u.AvatarUrl.String,
		PreferredModule: u.PreferredModule.String,
	}
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// profileCache is a simple in-memory cache for profile data
type profileCache struct {
	mu      sync.RWMutex
	data    map[string]*cacheEntry
	ttl     time.Duration
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	profile   *identity.Profile
	expiresAt time.Time
}

func newProfileCache(ttl time.Duration) *profileCache {
	cache := &profileCache{
		data:    make(map[string]*cacheEntry),
		ttl:     ttl,
		cleanup: time.NewTicker(ttl),
		done:    make(chan struct{}),
	}

	go cache.cleanupExpired()

	return cache
}

func (c *profileCache) Get(userID string) *identity.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[userID]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil
	}

	cp := *entry.profile
	return &cp
}

func (c *profileCache) Set(userID string, p *identity.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *p
	c.data[userID] = &cacheEntry{
		profile:   &cp,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *profileCache) Delete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, userID)
}

func (c *profileCache) cleanupExpired() {
	for {
		select {
		case <-c.cleanup.C:
			c.mu.Lock()
			now := time.Now()
			for id, entry := range c.data {
				if now.After(entry.expiresAt) {
					delete(c.data, id)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

func (c *profileCache) Stop() {
	c.once.Do(func() {
		c.cleanup.Stop()
		close(c.done)
	})
}
