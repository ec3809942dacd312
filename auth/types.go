package auth

// Backend endpoints owned by this service.
const (
	PathLogin       = "/api/auth/login"
	PathLogout      = "/api/auth/logout"
	PathProfile     = "/api/auth/profile"
	PathSignup      = "/api/user/signup"
	PathVerifyEmail = "/api/user/verify"
)

// headerRefreshToken carries the refresh token on the logout request.
const headerRefreshToken = "Refresh-Token"

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupData is the signup request body.
type SignupData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// loginData is the single supported login payload shape: plain strings in
// the envelope data. The Authorization value is opaque and already includes
// its scheme prefix.
type loginData struct {
	Authorization string `json:"Authorization"`
	RefreshToken  string `json:"refreshToken"`
	UserUUID      string `json:"userUUID"`
}

// profileData is the wire shape of the profile payload; email and username
// are optional on the wire.
type profileData struct {
	UUID     string  `json:"uuid"`
	Email    *string `json:"email"`
	Username *string `json:"username"`
}

// Verification is the outcome of an email verification link.
type Verification struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}
