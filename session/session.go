package session

// Keys under which the session is persisted. The names match the keys the
// web front end keeps in browser local storage, so a store can be shared.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyTenantID     = "tenantId"
	KeyPreAuthToken = "preAuthToken"
)

// Keys lists every persisted key. Clearing a session deletes all of them.
var Keys = []string{KeyToken, KeyRefreshToken, KeyTenantID, KeyPreAuthToken}

// Session is the persisted credential state of one logged in client.
type Session struct {
	AccessToken  string
	RefreshToken string
	TenantID     string
	// PreAuthToken is only set between a password login and the second
	// factor being verified.
	PreAuthToken string
}

// Authenticated reports whether the session holds an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

func fromValues(values map[string]string) Session {
	return Session{
		AccessToken:  values[KeyToken],
		RefreshToken: values[KeyRefreshToken],
		TenantID:     values[KeyTenantID],
		PreAuthToken: values[KeyPreAuthToken],
	}
}
