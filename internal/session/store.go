// Package session holds the authentication state of one dashboard device:
// who is signed in, whether an operation is in flight, and the persisted
// credential record that lets the session survive a reload.
//
// A Store is the single source of truth for that state. Route guards and UI
// chrome observe it through Subscribe; pages invoke its operations and turn
// the typed errors into notifications.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/internal/kv"
)

// State is an immutable snapshot of the session.
type State struct {
	User    *identity.User
	Loading bool
}

// Authenticated reports whether the snapshot holds a settled signed-in user.
func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// Observer receives every state transition. Observers run synchronously on
// the goroutine that performed the mutation and must not call Store
// operations from inside the callback.
type Observer func(State)

type Option func(*Store)

// WithLogger sets the logger used for slot and record problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKey overrides the slot key of the persisted record.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the clock stamped into persisted records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type subscriber struct {
	id int
	fn Observer
}

// Store owns the session state of one device.
type Store struct {
	auth     identity.Authenticator
	profiles identity.ProfileSource
	slot     kv.Store
	key      string
	logger   *slog.Logger
	now      func() time.Time

	// emitMu serializes a mutation together with its notifications so every
	// observer sees transitions in the order they were applied.
	emitMu sync.Mutex

	mu        sync.RWMutex
	state     State
	token     string
	gen       uint64
	observers []subscriber
	nextID    int

	initOnce sync.Once
}

// NewStore creates a store in the initial {User: nil, Loading: true} state.
// Call Initialize to restore a persisted session.
func NewStore(auth identity.Authenticator, profiles identity.ProfileSource, slot kv.Store, opts ...Option) *Store {
	s := &Store{
		auth:     auth,
		profiles: profiles,
		slot:     slot,
		key:      DefaultKey,
		logger:   slog.Default(),
		now:      time.Now,
		state:    State{Loading: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: s.state.User.Clone(), Loading: s.state.Loading}
}

// Token returns the provider access token of the current session, if any.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers fn for future transitions and returns a func that
// removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.observers {
				if sub.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispose drops every observer. The state and the persisted record are kept.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = nil
}

// Initialize restores the persisted session. Only the first call has an
// effect. It never fails: a missing, unreadable or malformed record leaves
// the device signed out, and malformed records are removed from the slot.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.emitMu.Lock()
		s.setLocked(func(st *State, _ *string) { st.Loading = true }, false)
		start := s.gen
		s.emitMu.Unlock()

		user, token := s.restore(ctx)

		s.emitMu.Lock()
		defer s.emitMu.Unlock()
		s.setLocked(func(st *State, tok *string) {
			// A login that finished while the slot was being read wins.
			if s.gen == start {
				st.User = user
				*tok = token
			}
			st.Loading = false
		}, user != nil)
	})
}

func (s *Store) restore(ctx context.Context) (*identity.User, string) {
	raw, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ""
	}
	if err != nil {
		s.logger.Warn("failed to read persisted session", "error", err)
		return nil, ""
	}

	user, token, err := decodeRecord(raw)
	if err != nil {
		s.logger.Debug("discarding persisted session", "error", err)
		if err := s.slot.Delete(ctx, s.key); err != nil {
			s.logger.Warn("failed to delete malformed session record", "error", err)
		}
		return nil, ""
	}
	return user, token
}

// Login signs in with the authenticator. On success the session record is
// persisted and the user becomes visible in a single transition. On failure
// the user is left unchanged and an *AuthenticationError is returned.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.beginLoading()

	grant, err := s.auth.SignIn(ctx, email, password)
	if err == nil && (grant == nil || !grant.User.Valid()) {
		err = errors.New("provider returned no identity")
	}
	if err != nil {
		s.endLoading()
		return &AuthenticationError{Reason: reason(err), Err: err}
	}

	s.establish(ctx, grant)
	return nil
}

// Register creates an account and signs it in, like Login. On failure no
// user is created and a *RegistrationError is returned.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	s.beginLoading()

	grant, err := s.auth.SignUp(ctx, name, email, password)
	if err == nil && (grant == nil || !grant.User.Valid()) {
		err = errors.New("provider returned no identity")
	}
	if err != nil {
		s.endLoading()
		return &RegistrationError{Reason: reason(err), Err: err}
	}

	s.establish(ctx, grant)
	return nil
}

func (s *Store) establish(ctx context.Context, grant *identity.Grant) {
	user := grant.User.Clone()

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.persistLocked(ctx, user, grant.Token)
	s.setLocked(func(st *State, tok *string) {
		st.User = user
		st.Loading = false
		*tok = grant.Token
	}, true)
}

// Logout ends the session. Without a signed-in user it returns nil and
// leaves the state untouched. Otherwise the local session and its record
// are always cleared; a provider failure is reported as *SignOutError
// afterwards.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	signedIn := s.state.User != nil
	token := s.token
	s.mu.RUnlock()
	if !signedIn {
		return nil
	}

	s.beginLoading()

	signOutErr := s.auth.SignOut(ctx, token)

	s.emitMu.Lock()
	if err := s.slot.Delete(context.WithoutCancel(ctx), s.key); err != nil {
		s.logger.Error("failed to delete persisted session", "error", err)
	}
	s.setLocked(func(st *State, tok *string) {
		st.User = nil
		st.Loading = false
		*tok = ""
	}, true)
	s.emitMu.Unlock()

	if signOutErr != nil {
		return &SignOutError{Reason: reason(signOutErr), Err: signOutErr}
	}
	return nil
}

// RefreshProfile merges the provider's profile attributes into the current
// user and re-persists the record. It is a no-op without a user and never
// touches Loading. Failures are returned as *ProfileRefreshError.
func (s *Store) RefreshProfile(ctx context.Context) error {
	s.mu.RLock()
	user := s.state.User
	s.mu.RUnlock()
	if user == nil {
		return nil
	}

	profile, err := s.profiles.FetchProfile(ctx, user.ID)
	if err != nil {
		return &ProfileRefreshError{Reason: reason(err), Err: err}
	}
	if profile == nil {
		return nil
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.RLock()
	current, token := s.state.User, s.token
	s.mu.RUnlock()
	if current == nil || current.ID != user.ID {
		return nil
	}

	merged := current.WithProfile(profile)
	s.persistLocked(ctx, merged, token)
	s.setLocked(func(st *State, _ *string) { st.User = merged }, false)
	return nil
}

func (s *Store) beginLoading() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.setLocked(func(st *State, _ *string) { st.Loading = true }, false)
}

func (s *Store) endLoading() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.setLocked(func(st *State, _ *string) { st.Loading = false }, false)
}

// persistLocked writes the record. Callers hold emitMu so the slot always
// matches the order of state transitions.
func (s *Store) persistLocked(ctx context.Context, user *identity.User, token string) {
	raw, err := encodeRecord(user, token, s.now())
	if err == nil {
		err = s.slot.Set(context.WithoutCancel(ctx), s.key, raw)
	}
	if err != nil {
		s.logger.Error("failed to persist session", "user_id", user.ID, "error", err)
	}
}

// setLocked applies mutate and notifies observers. Callers hold emitMu.
// identityChanged bumps the generation seen by Initialize.
func (s *Store) setLocked(mutate func(*State, *string), identityChanged bool) {
	s.mu.Lock()
	mutate(&s.state, &s.token)
	if identityChanged {
		s.gen++
	}
	snap := State{User: s.state.User.Clone(), Loading: s.state.Loading}
	observers := make([]subscriber, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, sub := range observers {
		sub.fn(snap)
	}
}
