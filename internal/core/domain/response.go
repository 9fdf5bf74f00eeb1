package domain

// AuthResponse is the reply to a session lookup or a login. Its fields are
// independent: a single response may carry a token and an error at once.
type AuthResponse struct {
	Token string   `json:"token,omitempty"`
	User  *Profile `json:"user,omitempty"`
	Error string   `json:"error,omitempty"`
}

// HasToken reports whether the response issued a token.
func (r *AuthResponse) HasToken() bool { return r.Token != "" }

// HasUser reports whether the response carries a profile.
func (r *AuthResponse) HasUser() bool { return r.User != nil }

// HasError reports whether the response carries an error indicator.
func (r *AuthResponse) HasError() bool { return r.Error != "" }

// RegisterResponse is the reply to a registration request.
type RegisterResponse struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HasError reports whether the response carries an error indicator.
func (r *RegisterResponse) HasError() bool { return r.Error != "" }
