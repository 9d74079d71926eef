package identity

// Profile holds the editable attributes a crew member keeps in the identity provider.
type Profile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	Bio             string `json:"bio,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	PreferredModule string `json:"preferred_module,omitempty"`
}

// User is the authenticated identity shown by the dashboard.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Bio       string   `json:"bio,omitempty"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
}

// Grant is what a successful sign-in or sign-up hands back: the identity plus
// the access token the provider issued for it. Mock providers leave Token empty.
type Grant struct {
	User  *User
	Token string
}

// Valid reports whether u carries the minimum fields of an identity.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Email != ""
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Profile != nil {
		p := *u.Profile
		cp.Profile = &p
	}
	return &cp
}

// WithProfile returns a copy of u with the profile attributes merged in.
// Empty profile fields keep the value already on the user.
func (u *User) WithProfile(p *Profile) *User {
	cp := u.Clone()
	if cp == nil || p == nil {
		return cp
	}
	if p.Name != "" {
		cp.Name = p.Name
	}
	if p.Role != "" {
		cp.Role = p.Role
	}
	cp.Bio = p.Bio
	cp.AvatarURL = p.AvatarURL
	pc := *p
	cp.Profile = &pc
	return cp
}

// DisplayName is the name shown in the top bar.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
