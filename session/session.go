// Package session holds the in-memory authoritative authentication state and
// mirrors it into a storage.Store so a session survives process restarts.
package session

// Keys the session persists under. Credentials and profile are stored
// independently so clearing one cannot be skipped because persisting the
// other failed.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserUUID     = "userUUID"
	KeyUserProfile  = "userProfile"
)

// Status is the authentication state machine:
// Unknown → Restoring → {Authenticated, Unauthenticated}. After the initial
// restore pass there is no way back to Restoring; login and logout move
// between the two terminal states.
type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusRestoring       Status = "restoring"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// User is the minimal identity owned by the session. It is replaced
// wholesale on login, never patched field by field.
type User struct {
	UUID     string `json:"uuid"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Snapshot is a point-in-time read model of the session.
type Snapshot struct {
	Status          Status
	IsAuthenticated bool
	AccessToken     string
	RefreshToken    string
	User            *User
}
